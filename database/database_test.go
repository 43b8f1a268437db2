/*
 * Copyright 2025 datakitio.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	content := `
connection:
  type: postgres
  host: db.internal
  port: 5432
  username: app
  password: secret
  dbname: appdb
  max_open_conns: 20
`
	path := filepath.Join(t.TempDir(), "database.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.ConnectionConfig.Type)
	require.Equal(t, "db.internal", cfg.ConnectionConfig.Host)
	require.Equal(t, 5432, cfg.ConnectionConfig.Port)
	require.Equal(t, "appdb", cfg.ConnectionConfig.DBName)
	require.Equal(t, 20, cfg.ConnectionConfig.MaxOpenConns)

	// Unset fields keep the defaults.
	require.Equal(t, 10, cfg.ConnectionConfig.MaxIdleConns)
	require.Equal(t, time.Hour, cfg.ConnectionConfig.ConnMaxLifetime)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFactoryRejectsUnsupportedType(t *testing.T) {
	factory := NewDatabaseFactory()
	_, err := factory.CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	require.Error(t, err)

	_, err = factory.CreateFromConfig(nil)
	require.Error(t, err)
}

func TestSQLiteManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = ":memory:"
	cfg.HealthCheckInterval = 0

	manager := NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(ctx))
	require.NoError(t, manager.Ping(ctx))
	require.NotNil(t, manager.GetDB())
	require.NotNil(t, manager.GetSQLDB())

	status := manager.HealthCheck(ctx)
	require.True(t, status.Healthy)
	require.True(t, status.Connected)

	stats := manager.GetStats()
	require.Equal(t, cfg.MaxOpenConns, stats.MaxOpenConns)

	require.NoError(t, manager.Disconnect())
	require.Nil(t, manager.GetDB())

	status = manager.HealthCheck(ctx)
	require.False(t, status.Healthy)
}
