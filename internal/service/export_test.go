package service

import "time"

// Test hooks for injecting a fake clock.

func (s *StoreService) SetNow(f func() time.Time) { s.now = f }

func (s *ResponderService) SetNow(f func() time.Time) { s.now = f }
