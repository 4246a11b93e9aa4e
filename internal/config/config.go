package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/spf13/viper"
)

var (
	ErrNoCredentials  = errors.New("rpc credentials not set")
	ErrInvalidCookie  = errors.New("cookie file is invalid")
	ErrUnknownBackend = errors.New("unknown backend")
	ErrUnknownChain   = errors.New("unknown chain")
)

// LoadConfigs reads the config file and environment into the package vars.
// A missing config file is not an error, defaults and env values apply.
func LoadConfigs(pathToConfig string) error {
	v := viper.New()
	v.SetConfigFile(pathToConfig)

	if err := v.ReadInConfig(); err != nil {
		logging.L.Warn().Err(err).Msg("No config file detected")
	}

	return applyConfig(v)
}

func applyConfig(v *viper.Viper) error {
	/* set defaults */
	v.SetDefault("provider", string(Provider))
	v.SetDefault("max_parallel_requests", MaxParallelRequests)
	v.SetDefault("http_host", HTTPHost)
	v.SetDefault("grpc_host", GRPCHost)
	v.SetDefault("chain", Chain)
	v.SetDefault("rpc_endpoint", RpcEndpoint)
	v.SetDefault("rest_endpoint", RestEndpoint)
	v.SetDefault("request_timeout", RequestTimeout)
	v.SetDefault("replica_backend", string(Replica))
	v.SetDefault("replica_path", ReplicaPath)
	v.SetDefault("cache_ttl", CacheTTL)
	v.SetDefault("cache_capacity", CacheCapacity)
	v.SetDefault("log_level", LogLevel)
	v.SetDefault("log_path", "")
	v.SetDefault("log_to_console", LogToConsole)

	// legacy key names
	v.RegisterAlias("rpc_url", "rpc_endpoint")
	v.RegisterAlias("rpc_username", "rpc_user")
	v.RegisterAlias("rpc_password", "rpc_pass")

	// Bind viper keys to environment variables
	v.AutomaticEnv()
	v.BindEnv("provider", "PROVIDER")
	v.BindEnv("http_host", "HTTP_HOST")
	v.BindEnv("grpc_host", "GRPC_HOST")
	v.BindEnv("chain", "CHAIN")
	v.BindEnv("rpc_endpoint", "CORE_RPC_ENDPOINT")
	v.BindEnv("rest_endpoint", "CORE_REST_ENDPOINT")
	v.BindEnv("cookie_path", "COOKIE_PATH")
	v.BindEnv("rpc_pass", "RPC_PASS")
	v.BindEnv("rpc_user", "RPC_USER")
	v.BindEnv("max_parallel_requests", "MAX_PARALLEL_REQUESTS")
	v.BindEnv("request_timeout", "REQUEST_TIMEOUT")
	v.BindEnv("replica_backend", "REPLICA_BACKEND")
	v.BindEnv("replica_path", "REPLICA_PATH")
	v.BindEnv("log_level", "LOG_LEVEL")

	/* read and set config variables */
	// General
	HTTPHost = v.GetString("http_host")
	GRPCHost = v.GetString("grpc_host")
	LogLevel = v.GetString("log_level")
	LogToConsole = v.GetBool("log_to_console")
	if logPath := v.GetString("log_path"); logPath != "" {
		LogsPath = logPath
	}

	// Performance
	MaxParallelRequests = v.GetUint16("max_parallel_requests")
	if MaxParallelRequests == 0 {
		MaxParallelRequests = 1
	}
	CacheTTL = v.GetDuration("cache_ttl")
	CacheCapacity = v.GetUint64("cache_capacity")

	// Node
	RpcEndpoint = v.GetString("rpc_endpoint")
	RestEndpoint = v.GetString("rest_endpoint")
	CookiePath = v.GetString("cookie_path")
	RpcPass = v.GetString("rpc_pass")
	RpcUser = v.GetString("rpc_user")
	RequestTimeout = v.GetDuration("request_timeout")

	switch b := Backend(v.GetString("provider")); b {
	case BackendREST, BackendRPC:
		Provider = b
	default:
		return fmt.Errorf("provider %q: %w", b, ErrUnknownBackend)
	}

	switch r := ReplicaBackend(v.GetString("replica_backend")); r {
	case ReplicaNone, ReplicaPebble, ReplicaLevelDB:
		Replica = r
	default:
		return fmt.Errorf("replica_backend %q: %w", r, ErrUnknownBackend)
	}
	ReplicaPath = v.GetString("replica_path")

	switch c := v.GetString("chain"); c {
	case "main", "signet", "regtest", "testnet":
		Chain = c
	default:
		return fmt.Errorf("chain %q: %w", c, ErrUnknownChain)
	}

	switch LogLevel {
	case "trace":
		logging.SetLogLevel(zerolog.TraceLevel)
	case "info":
		logging.SetLogLevel(zerolog.InfoLevel)
	case "debug":
		logging.SetLogLevel(zerolog.DebugLevel)
	case "warn":
		logging.SetLogLevel(zerolog.WarnLevel)
	case "error":
		logging.SetLogLevel(zerolog.ErrorLevel)
	}

	logging.L.Debug().
		Str("provider", string(Provider)).
		Uint16("max_parallel_requests", MaxParallelRequests).
		Str("replica_backend", string(Replica)).
		Msg("config loaded")

	if Provider == BackendRPC {
		return loadCredentials()
	}

	return nil
}

// loadCredentials prefers the cookie file over user and pass
func loadCredentials() error {
	if CookiePath != "" {
		data, err := os.ReadFile(CookiePath)
		if err != nil {
			logging.L.Err(err).Str("cookie_path", CookiePath).Msg("error reading cookie file")
			return err
		}

		credentials := strings.Split(strings.TrimSpace(string(data)), ":")
		if len(credentials) != 2 {
			return ErrInvalidCookie
		}
		RpcUser = credentials[0]
		RpcPass = credentials[1]
	}

	if RpcUser == "" || RpcPass == "" {
		return ErrNoCredentials
	}

	return nil
}
