package config

import (
	"time"

	"github.com/setavenger/blindbit-lib/utils"
)

var (
	LogLevel     = "info"
	LogToConsole = true
)

const (
	ConfigFileName       string = "tweakscan.toml"
	DefaultBaseDirectory string = "~/.blindbit-tweakscan"
)

type Backend string

const (
	BackendREST Backend = "rest"
	BackendRPC  Backend = "rpc"
)

// ReplicaBackend selects the on-disk store for previous outputs, empty disables the replica
type ReplicaBackend string

const (
	ReplicaNone    ReplicaBackend = ""
	ReplicaPebble  ReplicaBackend = "pebble"
	ReplicaLevelDB ReplicaBackend = "leveldb"
)

var (
	Provider = BackendREST

	RpcEndpoint  = "http://127.0.0.1:8332" // default local node
	RestEndpoint = "http://127.0.0.1:8332" // default local node
	CookiePath   = ""
	RpcUser      = ""
	RpcPass      = ""

	// RequestTimeout applies to every single call against the node
	RequestTimeout = 30 * time.Second

	BaseDirectory = ""
	LogsPath      = ""
	ReplicaPath   = ""

	HTTPHost = "127.0.0.1:8000"
	GRPCHost = "" // default value is empty (deactivated)

	// Chain is only reported to clients, block data always comes from the configured node
	Chain = "main"
)

// control vars
var (
	// MaxParallelRequests bounds the previous output lookups in flight during one block scan
	MaxParallelRequests uint16 = 24

	Replica ReplicaBackend = ReplicaNone

	// CacheTTL and CacheCapacity configure the in-memory tx output cache used by serve, zero capacity disables the cache
	CacheTTL      = 10 * time.Minute
	CacheCapacity uint64
)

func SetDirectories() {
	BaseDirectory = utils.ResolvePath(BaseDirectory)

	LogsPath = BaseDirectory + "/logs"
	ReplicaPath = BaseDirectory + "/replica"
}
