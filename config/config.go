package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers aceitos em STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config armazena todas as configurações do aplicativo GoSupply.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Persistência
	StorageDriver string
	DatabaseURL   string
	DBTimeout     time.Duration
	CatalogSeed   []string // SKU=preço, apenas com STORAGE_DRIVER=memory

	// Cache (Redis)
	RedisAddr     string
	CacheTimeout  time.Duration
	PriceCacheTTL time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Horário comercial e auto-fechamento
	BusinessTimezone  string
	AutoCloseSLAHours float64
	AutoCloseInterval time.Duration
	AutoCloseLockTTL  time.Duration

	// Notificações
	KafkaBrokers  []string
	KafkaTopic    string
	NotifyTimeout time.Duration
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Persistência
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		DBTimeout:     getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,
		CatalogSeed:   getListEnv("CATALOG_SEED"),

		// 3. Cache (Redis)
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout:  getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		PriceCacheTTL: getDurationEnv("PRICE_CACHE_TTL_SEC", 300) * time.Second,

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Auto-fechamento
		BusinessTimezone:  getEnv("BUSINESS_TIMEZONE", "UTC"),
		AutoCloseSLAHours: getFloatEnv("AUTO_CLOSE_SLA_HOURS", 24),
		AutoCloseInterval: getDurationEnv("AUTO_CLOSE_INTERVAL_SEC", 300) * time.Second,
		AutoCloseLockTTL:  getDurationEnv("AUTO_CLOSE_LOCK_TTL_SEC", 120) * time.Second,

		// 7. Notificações
		KafkaBrokers:  getListEnv("KAFKA_BROKERS"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "order-transitions"),
		NotifyTimeout: getDurationEnv("NOTIFY_TIMEOUT_SEC", 5) * time.Second,
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		// sem banco a aplicação não inicia
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	case StorageMemory:
		cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	default:
		log.Fatalf("❌ Erro de Configuração: STORAGE_DRIVER desconhecido (%q). Use %q ou %q.", cfg.StorageDriver, StoragePostgres, StorageMemory)
	}

	if cfg.AutoCloseSLAHours <= 0 {
		log.Printf("⚠️ Aviso: AUTO_CLOSE_SLA_HOURS deve ser positivo. Usando padrão (24).")
		cfg.AutoCloseSLAHours = 24
	}
	if cfg.AutoCloseInterval <= 0 {
		log.Printf("⚠️ Aviso: AUTO_CLOSE_INTERVAL_SEC deve ser positivo. Usando padrão (300).")
		cfg.AutoCloseInterval = 300 * time.Second
	}
	if cfg.AutoCloseLockTTL <= 0 {
		log.Printf("⚠️ Aviso: AUTO_CLOSE_LOCK_TTL_SEC deve ser positivo. Usando padrão (120).")
		cfg.AutoCloseLockTTL = 120 * time.Second
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
// O chamador multiplica pela unidade.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getFloatEnv aceita frações, como AUTO_CLOSE_SLA_HOURS=1.5.
func getFloatEnv(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número válido. Usando padrão (%g).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getListEnv lê uma lista separada por vírgulas, ignorando itens vazios.
func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
