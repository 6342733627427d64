package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config — вся конфигурация приложения. Заполняется один раз на старте
// и дальше только читается.
type Config struct {
	HTTP    HTTPConfig
	DB      DBConfig
	Admin   AdminConfig
	Booking BookingConfig
	Session SessionConfig
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RateLimitPerMin int
}

type DBConfig struct {
	// Driver: "sqlite" или "postgres".
	Driver string

	// Путь к файлу БД для sqlite.
	Path string

	// Параметры подключения для postgres.
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // минут
}

// AdminConfig — учётные данные администратора. В оригинале были захардкожены,
// здесь выносим в окружение; в проде это должен быть секрет-стор.
type AdminConfig struct {
	Username string
	Password string
}

// BookingConfig — справочники: список экспертов и видов консультаций.
// Это конфигурационные данные процесса, пользователь их не меняет.
type BookingConfig struct {
	Experts           []string
	ConsultationTypes []string
}

type SessionConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 30)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 30)) * time.Second,
			IdleTimeout:     time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SEC", 120)) * time.Second,
			RateLimitPerMin: getEnvInt("HTTP_RATE_LIMIT_PER_MIN", 120),
		},
		DB: DBConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Path:            getEnv("DB_PATH", "database.db"),
			Host:            getEnv("DB_HOST", "postgres"),
			User:            getEnv("DB_USER", "booking"),
			Password:        getEnv("DB_PASSWORD", "booking"),
			Name:            getEnv("DB_NAME", "booking_db"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "Europe/Warsaw"),
			Port:            getEnvInt("DB_PORT", 5432),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifeTime: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", "password123"),
		},
		Booking: BookingConfig{
			Experts: getEnvList("EXPERTS",
				"Jan Kowalski,Anna Nowak,Michał Wiśniewski"),
			ConsultationTypes: getEnvList("CONSULTATION_TYPES",
				"Konsultacja techniczna,Konsultacja biznesowa,Konsultacja prawna"),
		},
		Session: SessionConfig{
			TTL: time.Duration(getEnvInt("SESSION_TTL_MIN", 60)) * time.Minute,
		},
	}

	// минимальная валидация
	switch cfg.DB.Driver {
	case "sqlite":
		if cfg.DB.Path == "" {
			return nil, fmt.Errorf("invalid DB config: path must not be empty for sqlite")
		}
	case "postgres":
		if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
			return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	default:
		return nil, fmt.Errorf("invalid DB config: unknown driver %q", cfg.DB.Driver)
	}

	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		return nil, fmt.Errorf("invalid admin config: username/password must not be empty")
	}
	if len(cfg.Booking.Experts) == 0 {
		return nil, fmt.Errorf("invalid booking config: experts list must not be empty")
	}
	if len(cfg.Booking.ConsultationTypes) == 0 {
		return nil, fmt.Errorf("invalid booking config: consultation types list must not be empty")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvList читает список значений через запятую, обрезая пробелы.
// Пустые элементы отбрасываются.
func getEnvList(key, def string) []string {
	raw := getEnv(key, def)

	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
