package config

// Config is the top-level YAML structure for the runtime service.
type Config struct {
	Version string      `yaml:"version"`
	Server  ServerConf  `yaml:"server"`
	History HistoryConf `yaml:"history"`
	Graph   GraphConf   `yaml:"graph"`
	Storage StorageConf `yaml:"storage"`
}

// ServerConf holds HTTP settings for the document service.
type ServerConf struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
}

// HistoryConf tunes the undo stack.
type HistoryConf struct {
	MaxDepth int `yaml:"max_depth"`
	// CaptureSelectionChanges makes selection-only changes undoable, the
	// way the legacy editor behaved. Off by default.
	CaptureSelectionChanges bool `yaml:"capture_selection_changes"`
}

// GraphConf holds per-document defaults.
type GraphConf struct {
	DefaultEdgeStyle string `yaml:"default_edge_style"`
}

// StorageConf selects the document store backend.
type StorageConf struct {
	Backend string `yaml:"backend"` // "memory" | "postgres"
	DSN     string `yaml:"dsn"`
}
