package mock

// Config represents the target server configuration
type Config struct {
	Port    int     `json:"port" yaml:"port"`       // Server port (0 picks a free port)
	Host    string  `json:"host" yaml:"host"`       // Server host (default: 127.0.0.1)
	Routes  []Route `json:"routes" yaml:"routes"`   // Route definitions
	Logging bool    `json:"logging" yaml:"logging"` // Log every request at debug level
}

// Route represents one canned response
type Route struct {
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`         // Route description
	Method   string            `json:"method" yaml:"method"`                         // HTTP method (GET, POST, etc.)
	Path     string            `json:"path" yaml:"path"`                             // URL path pattern
	PathType string            `json:"pathType,omitempty" yaml:"pathType,omitempty"` // exact, prefix, regex (default: exact)
	Status   int               `json:"status" yaml:"status"`                         // HTTP status code
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`   // Response headers
	Body     string            `json:"body,omitempty" yaml:"body,omitempty"`         // Response body
	Delay    int               `json:"delay,omitempty" yaml:"delay,omitempty"`       // Response delay in milliseconds
	Hangup   bool              `json:"hangup,omitempty" yaml:"hangup,omitempty"`     // Close the connection without replying
}

// DefaultConfig returns a catch-all GET route answering body with 200
func DefaultConfig(body string) *Config {
	return &Config{
		Host: "127.0.0.1",
		Routes: []Route{
			{Name: "default", Method: "GET", Path: "/", PathType: "prefix", Status: 200, Body: body},
		},
	}
}

// HangupConfig returns a catch-all route that drops every connection unanswered
func HangupConfig() *Config {
	return &Config{
		Host: "127.0.0.1",
		Routes: []Route{
			{Name: "hangup", Method: "GET", Path: "/", PathType: "prefix", Hangup: true},
		},
	}
}
