package config

// Config is the top-level YAML structure.
type Config struct {
	Version           string          `yaml:"version"`
	Server            ServerConf      `yaml:"server"`
	Engine            EngineConf      `yaml:"engine"`
	Icons             IconConf        `yaml:"icons"`
	DependenciesGroup DependencyGroup `yaml:"dependencies_group"`
}

// ServerConf holds HTTP listener settings.
type ServerConf struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
}

// EngineConf holds tunable concurrency settings for batch transforms.
type EngineConf struct {
	Workers            int `yaml:"workers"`
	QueueDepth         int `yaml:"queue_depth"`
	TransformTimeoutMs int `yaml:"transform_timeout_ms"`
	MaxBatchSize       int `yaml:"max_batch_size"`
}

// IconConf extends or overrides the built-in step-type icon table.
type IconConf struct {
	Fallback   string            `yaml:"fallback"`
	Dependency string            `yaml:"dependency"`
	Overrides  map[string]string `yaml:"overrides"` // step type → icon
}

// DependencyGroup names the synthetic group that holds service dependencies.
type DependencyGroup struct {
	Identifier string `yaml:"identifier"`
	Name       string `yaml:"name"`
}
