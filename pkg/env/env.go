// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	Local      = "local"
	Production = "production"
	Testing    = "testing"
)

var (
	mu  sync.RWMutex
	cur string
)

// Current returns the active environment name.
func Current() string {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Set overrides the environment, normalising unknown values to Local.
func Set(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case Production, Testing:
	default:
		name = Local
	}
	mu.Lock()
	cur = name
	mu.Unlock()
}

func IsLocal() bool {
	return Current() == Local
}

func IsProduction() bool {
	return Current() == Production
}

func IsTesting() bool {
	return Current() == Testing
}

func init() {
	v := viper.New()
	_ = v.BindEnv("env", "ZAPNOTIFY_ENV", "ENV")
	Set(v.GetString("env"))
}
