// Package testutil provides shared helpers for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/mcladder/bedboard/cache"
	"github.com/mcladder/bedboard/config"
	"github.com/mcladder/bedboard/db"
	"github.com/mcladder/bedboard/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB opens an in-memory SQLite database with all tables migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{Mode: db.ModeSQLiteMemory})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))
	return gdb
}

// SetupTestCache returns an in-process cache.
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{LocalGCInterval: time.Minute})
	require.NoError(t, err)
	return c
}
