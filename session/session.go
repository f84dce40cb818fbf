// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"sync"
	"time"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/geocoding"
)

var (
	// ErrPassRunning is returned when a pass is started while another runs.
	ErrPassRunning = errors.New("a geocoding pass is already running")
	// ErrNothingPrepared is returned when a pass is started before any upload.
	ErrNothingPrepared = errors.New("no prepared addresses")
	// ErrPassDiscarded is returned when the session was reset during the pass.
	ErrPassDiscarded = errors.New("session was reset during the pass")
)

// Pass is a running geocoding pass of a session.
type Pass struct {
	Records []*adresse.Record
	serial  int
}

// Addresses returns the full addresses of the records, in order.
func (p *Pass) Addresses() []string {
	addresses := make([]string, len(p.Records))
	for i, rec := range p.Records {
		addresses[i] = rec.FullAddress
	}

	return addresses
}

// Progress is the state of the current or last pass.
type Progress struct {
	Done    int  `json:"done"`
	Total   int  `json:"total"`
	Running bool `json:"running"`
}

// Fraction returns the completed share of the pass, between 0 and 1.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}

	return float64(p.Done) / float64(p.Total)
}

// Session is the state of one user: the prepared records, the last
// completed table and the progress of the running pass. It is safe for
// concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	source     string
	prepared   []*adresse.Record
	table      *Table
	progress   Progress
	updatedAt  time.Time
	passSerial int
}

// New creates an empty session.
func New(id string) *Session {
	now := time.Now()

	return &Session{ID: id, CreatedAt: now, updatedAt: now}
}

// SetPrepared stores the records of a new upload. The previous table is
// kept until a pass over the new records completes.
func (s *Session) SetPrepared(source string, records []*adresse.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = source
	s.prepared = append([]*adresse.Record(nil), records...)
	s.updatedAt = time.Now()
}

// Prepared returns the records of the last upload and its file name.
func (s *Session) Prepared() (string, []*adresse.Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.source, append([]*adresse.Record(nil), s.prepared...)
}

// BeginPass marks a pass as running over the prepared records.
func (s *Session) BeginPass() (*Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress.Running {
		return nil, ErrPassRunning
	}

	if len(s.prepared) == 0 {
		return nil, ErrNothingPrepared
	}

	s.passSerial++
	s.progress = Progress{Total: len(s.prepared), Running: true}
	s.updatedAt = time.Now()

	return &Pass{Records: append([]*adresse.Record(nil), s.prepared...), serial: s.passSerial}, nil
}

// Advance records the progress of the running pass.
func (s *Session) Advance(p *Pass, done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.progress.Running || p.serial != s.passSerial {
		return
	}

	s.progress.Done = done
	s.progress.Total = total
}

// CompletePass replaces the stored table with the result of the pass.
func (s *Session) CompletePass(p *Pass, results []geocoding.Result) (*Table, error) {
	table, err := NewTable(p.Records, results)

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.serial != s.passSerial {
		return nil, ErrPassDiscarded
	}

	s.progress.Running = false
	s.updatedAt = time.Now()

	if err != nil {
		return nil, err
	}

	s.table = table

	return table, nil
}

// AbortPass ends the running pass and keeps the previous table.
func (s *Session) AbortPass(p *Pass) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.serial != s.passSerial {
		return
	}

	s.progress.Running = false
	s.updatedAt = time.Now()
}

// Progress returns the state of the current or last pass.
func (s *Session) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.progress
}

// Table returns the table of the last completed pass, nil if none.
func (s *Session) Table() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.table
}

// UpdatedAt returns the time of the last change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.updatedAt
}

// Reset clears the uploaded records and the table. A running pass is
// not interrupted but its result is discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = ""
	s.prepared = nil
	s.table = nil
	s.progress = Progress{}
	s.passSerial++
	s.updatedAt = time.Now()
}
