// odoo/connection.go
package odoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
	"go.uber.org/zap"

	"github.com/odoo-mcp/odoo-mcp-server/config"
	odoo_errors "github.com/odoo-mcp/odoo-mcp-server/errors"
	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
)

// DefaultTimeout bounds every remote call so a stuck Odoo server
// cannot block a caller indefinitely.
const DefaultTimeout = 30 * time.Second

// Connection manages the XML-RPC clients for one Odoo server: the db,
// common and object services, plus the authentication state shared by
// every ExecuteKw call.
type Connection struct {
	cfg     config.OdooConfiguration
	baseURL string
	timeout time.Duration

	transport  http.RoundTripper
	httpClient *http.Client

	mu           sync.Mutex
	dbClient     *xmlrpc.Client
	commonClient *xmlrpc.Client
	objectClient *xmlrpc.Client
	connected    bool

	authenticated bool
	uid           int
	database      string
	authMethod    string // "api_key" or "password"
}

// NewConnection validates the configured URL and prepares a connection.
// No network traffic happens until Connect.
func NewConnection(cfg config.OdooConfiguration) (*Connection, error) {
	baseURL, err := parseBaseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: timeout,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}

	return &Connection{
		cfg:        cfg,
		baseURL:    baseURL,
		timeout:    timeout,
		transport:  transport,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

func parseBaseURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse URL: %v", odoo_errors.ErrConnection, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: invalid URL scheme %q, must be http or https",
			odoo_errors.ErrConnection, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: invalid URL: missing hostname", odoo_errors.ErrConnection)
	}

	base := parsed.Scheme + "://" + parsed.Hostname()
	if port := parsed.Port(); port != "" && port != "80" && port != "443" {
		base += ":" + port
	}
	return base, nil
}

// Connect detects the available endpoint set and creates the XML-RPC
// clients. It does not authenticate.
func (c *Connection) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		logger.Warn("Already connected to Odoo")
		return nil
	}

	set, commonClient, err := c.detectEndpoints()
	if err != nil {
		return err
	}

	dbClient, err := xmlrpc.NewClient(c.baseURL+set.db, c.transport)
	if err != nil {
		commonClient.Close()
		return fmt.Errorf("%w: %v", odoo_errors.ErrConnection, err)
	}
	objectClient, err := xmlrpc.NewClient(c.baseURL+set.object, c.transport)
	if err != nil {
		commonClient.Close()
		dbClient.Close()
		return fmt.Errorf("%w: %v", odoo_errors.ErrConnection, err)
	}

	c.commonClient = commonClient
	c.dbClient = dbClient
	c.objectClient = objectClient
	c.connected = true

	logger.Info("Successfully connected to Odoo server",
		zap.String("url", c.baseURL), zap.String("endpoints", set.name))
	return nil
}

// detectEndpoints probes each endpoint set's common service with a
// version call and returns the first one that answers.
func (c *Connection) detectEndpoints() (endpointSet, *xmlrpc.Client, error) {
	for _, set := range endpointSets {
		endpointURL := c.baseURL + set.common
		client, err := xmlrpc.NewClient(endpointURL, c.transport)
		if err != nil {
			logger.Warn("Failed to create XML-RPC client",
				zap.String("endpoint", endpointURL), zap.Error(err))
			continue
		}

		var version any
		if err := client.Call("version", nil, &version); err != nil {
			logger.Debug("Endpoint probe failed",
				zap.String("set", set.name), zap.String("endpoint", endpointURL), zap.Error(err))
			client.Close()
			continue
		}

		logger.Info("Detected XML-RPC endpoints",
			zap.String("set", set.name), zap.Any("serverVersion", version))
		return set, client, nil
	}

	return endpointSet{}, nil, fmt.Errorf(
		"%w: no available XML-RPC endpoints found on Odoo server at %s",
		odoo_errors.ErrConnection, c.baseURL)
}

// Disconnect closes the XML-RPC clients and clears all session state.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return
	}

	for _, client := range []*xmlrpc.Client{c.dbClient, c.commonClient, c.objectClient} {
		if client != nil {
			client.Close()
		}
	}
	c.dbClient = nil
	c.commonClient = nil
	c.objectClient = nil
	c.connected = false
	c.authenticated = false
	c.uid = 0
	c.database = ""
	c.authMethod = ""

	logger.Info("Disconnected from Odoo server")
}

// IsConnected reports whether Connect succeeded.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// IsAuthenticated reports whether a user session is established.
func (c *Connection) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// UID returns the authenticated user ID, or 0 before authentication.
func (c *Connection) UID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uid
}

// Database returns the authenticated database name.
func (c *Connection) Database() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.database
}

// AuthMethod returns "api_key" or "password" after authentication.
func (c *Connection) AuthMethod() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authMethod
}

// ServerVersion fetches the server version block from the common service.
func (c *Connection) ServerVersion() (map[string]any, error) {
	client, err := c.common()
	if err != nil {
		return nil, err
	}

	var result any
	if err := client.Call("version", nil, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to get server version: %v", odoo_errors.ErrConnection, err)
	}
	if version, ok := result.(map[string]any); ok {
		return version, nil
	}
	return map[string]any{"version": fmt.Sprintf("%v", result)}, nil
}

// CheckHealth reports connection health with a status message.
func (c *Connection) CheckHealth() (bool, string) {
	if !c.IsConnected() {
		return false, "Not connected"
	}

	version, err := c.ServerVersion()
	if err != nil {
		return false, fmt.Sprintf("Health check failed: %v", err)
	}

	serverVersion := "unknown"
	if v, ok := version["server_version"].(string); ok {
		serverVersion = v
	}
	return true, fmt.Sprintf("Connected to Odoo %s", serverVersion)
}

// ListDatabases lists the databases the server is willing to disclose.
func (c *Connection) ListDatabases() ([]string, error) {
	c.mu.Lock()
	client := c.dbClient
	connected := c.connected
	c.mu.Unlock()

	if !connected || client == nil {
		return nil, odoo_errors.ErrNotConnected
	}

	var result any
	if err := client.Call("list", nil, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to list databases: %v", odoo_errors.ErrConnection, err)
	}

	raw, ok := result.([]any)
	if !ok {
		if result == nil {
			return nil, nil
		}
		return []string{fmt.Sprintf("%v", result)}, nil
	}
	databases := make([]string, 0, len(raw))
	for _, db := range raw {
		databases = append(databases, fmt.Sprintf("%v", db))
	}
	logger.Info("Listed databases", zap.Int("count", len(databases)))
	return databases, nil
}

// AutoSelectDatabase picks a database: the configured one if set, the
// single available one, or "odoo" when several exist.
func (c *Connection) AutoSelectDatabase() (string, error) {
	// A configured database wins without validation: listing may be
	// restricted on hardened servers.
	if c.cfg.Database != "" {
		logger.Info("Using configured database", zap.String("database", c.cfg.Database))
		return c.cfg.Database, nil
	}

	databases, err := c.ListDatabases()
	if err != nil {
		return "", fmt.Errorf(
			"%w: database auto-selection failed, listing may be restricted; set odoo.database explicitly",
			odoo_errors.ErrConnection)
	}

	switch {
	case len(databases) == 0:
		return "", fmt.Errorf("%w: no databases found on Odoo server", odoo_errors.ErrConnection)
	case len(databases) == 1:
		logger.Info("Auto-selected only available database", zap.String("database", databases[0]))
		return databases[0], nil
	}

	for _, db := range databases {
		if db == "odoo" {
			logger.Info("Auto-selected 'odoo' database from multiple options")
			return "odoo", nil
		}
	}

	return "", fmt.Errorf("%w: cannot auto-select among %d databases; set odoo.database explicitly",
		odoo_errors.ErrConnection, len(databases))
}

// Authenticate establishes a user session, trying API key first and
// falling back to username/password.
func (c *Connection) Authenticate(database string) error {
	if !c.IsConnected() {
		return odoo_errors.ErrNotConnected
	}

	dbName := database
	if dbName == "" {
		selected, err := c.AutoSelectDatabase()
		if err != nil {
			return err
		}
		dbName = selected
	}

	if c.cfg.UsesAPIKey() {
		logger.Info("Attempting API key authentication")
		ok, err := c.authenticateAPIKey(dbName)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		logger.Info("API key authentication failed, trying username/password")
	}

	if c.cfg.UsesCredentials() {
		logger.Info("Attempting username/password authentication")
		ok, err := c.authenticatePassword(dbName)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	return fmt.Errorf("%w: please check your credentials", odoo_errors.ErrAuthFailed)
}

type apiKeyValidateResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Valid  bool `json:"valid"`
		UserID int  `json:"user_id"`
	} `json:"data"`
}

func (c *Connection) authenticateAPIKey(database string) (bool, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+apiKeyValidatePath, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", odoo_errors.ErrConnection, err)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: failed to validate API key: %v", odoo_errors.ErrConnection, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		logger.Warn("Invalid API key")
		return false, nil
	case http.StatusTooManyRequests:
		logger.Warn("Rate limit exceeded during API key validation")
		return false, nil
	default:
		return false, fmt.Errorf("%w: API key validation returned HTTP %d",
			odoo_errors.ErrConnection, resp.StatusCode)
	}

	var body apiKeyValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("%w: failed to decode API key validation response: %v",
			odoo_errors.ErrConnection, err)
	}
	if !body.Success || !body.Data.Valid {
		logger.Warn("API key validation failed")
		return false, nil
	}

	c.mu.Lock()
	c.uid = body.Data.UserID
	c.database = database
	c.authMethod = "api_key"
	c.authenticated = true
	c.mu.Unlock()

	logger.Info("Successfully authenticated with API key", zap.Int("uid", body.Data.UserID))
	return true, nil
}

func (c *Connection) authenticatePassword(database string) (bool, error) {
	client, err := c.common()
	if err != nil {
		return false, err
	}

	var result any
	err = client.Call("authenticate",
		[]any{database, c.cfg.Username, c.cfg.Password, map[string]any{}}, &result)
	if err != nil {
		if isAccessDeniedFault(err) {
			logger.Warn("Invalid username or password")
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to authenticate: %v", odoo_errors.ErrConnection, err)
	}

	// Odoo returns the user ID as an int, or false on bad credentials.
	uid, ok := toInt(result)
	if !ok || uid <= 0 {
		logger.Warn("Username/password authentication failed")
		return false, nil
	}

	c.mu.Lock()
	c.uid = uid
	c.database = database
	c.authMethod = "password"
	c.authenticated = true
	c.mu.Unlock()

	logger.Info("Successfully authenticated with username/password", zap.Int("uid", uid))
	return true, nil
}

// ExecuteKw executes a method on an Odoo model via the object service.
// All remote failures wrap errors.ErrConnection so callers can
// distinguish transport problems from ordinary results.
func (c *Connection) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", odoo_errors.ErrConnection, err)
	}

	c.mu.Lock()
	client := c.objectClient
	connected := c.connected
	authenticated := c.authenticated
	database := c.database
	uid := c.uid
	authMethod := c.authMethod
	c.mu.Unlock()

	if !connected || client == nil {
		return nil, odoo_errors.ErrNotConnected
	}
	if !authenticated {
		return nil, odoo_errors.ErrNotAuthenticated
	}

	secret := c.cfg.Password
	if authMethod == "api_key" {
		secret = c.cfg.APIKey
	}

	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	logger.Debug("Executing remote method",
		zap.String("model", model), zap.String("method", method))

	var result any
	err := client.Call("execute_kw",
		[]any{database, uid, secret, model, method, args, kwargs}, &result)
	if err != nil {
		logger.Error("Remote method failed",
			zap.String("model", model), zap.String("method", method), zap.Error(err))
		return nil, fmt.Errorf("%w: %s on %s failed: %v",
			odoo_errors.ErrConnection, method, model, err)
	}

	return result, nil
}

// Search returns the IDs of records matching an Odoo domain.
func (c *Connection) Search(ctx context.Context, model string, domain []any, kwargs map[string]any) ([]int, error) {
	result, err := c.ExecuteKw(ctx, model, "search", []any{domain}, kwargs)
	if err != nil {
		return nil, err
	}
	return toIntSlice(result), nil
}

// Read reads records by IDs, optionally restricted to a field list.
func (c *Connection) Read(ctx context.Context, model string, ids []int, fields []string) ([]map[string]any, error) {
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	result, err := c.ExecuteKw(ctx, model, "read", []any{ids}, kwargs)
	if err != nil {
		return nil, err
	}
	return toRecordSlice(result), nil
}

// SearchRead searches and reads in one round trip.
func (c *Connection) SearchRead(ctx context.Context, model string, domain []any, fields []string, kwargs map[string]any) ([]map[string]any, error) {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	result, err := c.ExecuteKw(ctx, model, "search_read", []any{domain}, kwargs)
	if err != nil {
		return nil, err
	}
	return toRecordSlice(result), nil
}

// SearchCount counts records matching a domain.
func (c *Connection) SearchCount(ctx context.Context, model string, domain []any) (int, error) {
	result, err := c.ExecuteKw(ctx, model, "search_count", []any{domain}, nil)
	if err != nil {
		return 0, err
	}
	count, _ := toInt(result)
	return count, nil
}

// FieldsGet returns field metadata for a model. It fails when the
// model is inaccessible, which the basic access tier uses as its probe.
func (c *Connection) FieldsGet(ctx context.Context, model string) (map[string]any, error) {
	result, err := c.ExecuteKw(ctx, model, "fields_get", nil, nil)
	if err != nil {
		return nil, err
	}
	fields, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected fields_get result for %s",
			odoo_errors.ErrConnection, model)
	}
	return fields, nil
}

// Create creates a record and returns its ID.
func (c *Connection) Create(ctx context.Context, model string, values map[string]any) (int, error) {
	result, err := c.ExecuteKw(ctx, model, "create", []any{values}, nil)
	if err != nil {
		return 0, err
	}
	id, ok := toInt(result)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected create result for %s", odoo_errors.ErrConnection, model)
	}
	logger.Info("Created record", zap.String("model", model), zap.Int("id", id))
	return id, nil
}

// Write updates records.
func (c *Connection) Write(ctx context.Context, model string, ids []int, values map[string]any) error {
	if _, err := c.ExecuteKw(ctx, model, "write", []any{ids, values}, nil); err != nil {
		return err
	}
	logger.Info("Updated records", zap.String("model", model), zap.Int("count", len(ids)))
	return nil
}

// Unlink deletes records.
func (c *Connection) Unlink(ctx context.Context, model string, ids []int) error {
	if _, err := c.ExecuteKw(ctx, model, "unlink", []any{ids}, nil); err != nil {
		return err
	}
	logger.Info("Deleted records", zap.String("model", model), zap.Int("count", len(ids)))
	return nil
}

func (c *Connection) common() (*xmlrpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.commonClient == nil {
		return nil, odoo_errors.ErrNotConnected
	}
	return c.commonClient, nil
}

func isAccessDeniedFault(err error) bool {
	var fault xmlrpc.FaultError
	if !errors.As(err, &fault) {
		return false
	}
	return strings.Contains(fault.String, "Access Denied") ||
		strings.Contains(fault.String, "Invalid credentials")
}

// toInt normalizes the numeric types the XML-RPC decoder may produce.
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func toIntSlice(value any) []int {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(raw))
	for _, item := range raw {
		if id, ok := toInt(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func toRecordSlice(value any) []map[string]any {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	records := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if record, ok := item.(map[string]any); ok {
			records = append(records, record)
		}
	}
	return records
}
