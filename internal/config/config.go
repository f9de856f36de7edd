package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath es la ruta del archivo de configuración si no se define GESTIONDASH_CONFIG.
const DefaultPath = "/etc/gestiondash/gestiondash.yaml"

// Config estructura principal de configuración
type Config struct {
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	KPI      KPIConfig      `yaml:"kpi"`
	Log      LogConfig      `yaml:"log"`
}

type APIConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	EnableWebsocket bool     `yaml:"enable_websocket"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// AuthConfig habilita el guard JWT cuando JWTSecret no está vacío.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// KPIConfig permite reemplazar los códigos de resultado que cuentan como
// gestión efectiva y exitosa. Vacío significa usar los valores por defecto.
type KPIConfig struct {
	Efectivas []int `yaml:"efectivas"`
	Exitosas  []int `yaml:"exitosas"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default devuelve la configuración base antes de leer archivo y entorno.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Port:         3306,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{TokenTTLHours: 24},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// Load carga la configuración desde archivo YAML. Un archivo inexistente no es
// error: se usan los valores por defecto y el entorno.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, eris.Wrap(err, "error parseando YAML")
		}
	case os.IsNotExist(err):
	default:
		return nil, eris.Wrap(err, "error leyendo archivo de configuración")
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// overrideWithEnv permite sobrescribir configuración con variables de entorno
func overrideWithEnv(cfg *Config) error {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return eris.Wrapf(err, "DB_PORT inválido: %q", v)
		}
		cfg.Database.Port = port
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.Username = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("GESTIONDASH_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.API.AllowedOrigins = origins
	}
	if v := os.Getenv("GESTIONDASH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("GESTIONDASH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate verifica que estén los datos mínimos para conectar a la base.
func (c *Config) Validate() error {
	missing := []string{}
	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.Username == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Database.Database == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return eris.Errorf("falta configuración de base de datos: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Address devuelve la dirección completa del servidor API
func (a APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// DSN devuelve el Data Source Name para MySQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

// InitLogger inicializa el logger global de zap.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "nivel de log inválido")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "error construyendo logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
