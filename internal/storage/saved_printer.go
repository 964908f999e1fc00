// internal/storage/saved_printer.go
package storage

import (
	"encoding/json"
	"fmt"

	"printer-service/internal/model"
)

// SavedPrinterKey is the fixed key of the saved printer record
const SavedPrinterKey = "printer:saved"

// savedRecord is the persisted form: identity fields only
type savedRecord struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	TransportKind model.TransportKind `json:"transportKind"`
	Address       string              `json:"address,omitempty"`
}

// SavedPrinterStore persists the one printer the service prints to
type SavedPrinterStore struct {
	kv KV
}

// NewSavedPrinterStore wraps a KV
func NewSavedPrinterStore(kv KV) *SavedPrinterStore {
	return &SavedPrinterStore{kv: kv}
}

// Save replaces the saved printer
func (s *SavedPrinterStore) Save(device model.PrinterDevice) error {
	if err := device.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(savedRecord{
		ID:            device.ID,
		Name:          device.Name,
		TransportKind: device.TransportKind,
		Address:       device.Address,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal saved printer: %w", err)
	}
	return s.kv.Set(SavedPrinterKey, string(data))
}

// Get returns the saved printer, or nil when none is saved
func (s *SavedPrinterStore) Get() (*model.PrinterDevice, error) {
	raw, ok, err := s.kv.Get(SavedPrinterKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var rec savedRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode saved printer: %w", err)
	}

	return &model.PrinterDevice{
		ID:            rec.ID,
		Name:          rec.Name,
		TransportKind: rec.TransportKind,
		Address:       rec.Address,
	}, nil
}

// Remove clears the saved printer
func (s *SavedPrinterStore) Remove() error {
	return s.kv.Remove(SavedPrinterKey)
}
