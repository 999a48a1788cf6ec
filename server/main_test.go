// server/main_test.go
package server_test

import (
	"os"
	"testing"

	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "server-test-logs")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(dir)
	defer logger.Sync()

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}
