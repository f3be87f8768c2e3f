package bootstrap

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"os"

	"github.com/jt828/go-http-template/pkg/observability"
	"github.com/jt828/go-http-template/pkg/snowflake"
	snowflakeImpl "github.com/jt828/go-http-template/pkg/snowflake/implementation"
)

// InitializeSnowflake derives the node id from HOSTNAME. Outside a pod the
// variable is often unset; node 0 is used then.
func InitializeSnowflake(log observability.Logger) (snowflake.Snowflake, error) {
	nodeID, err := PodNodeID()
	if err != nil {
		log.Warn("falling back to snowflake node 0", observability.Err(err))
		nodeID = 0
	}
	return snowflakeImpl.NewSnowflake(nodeID)
}

func PodNodeID() (int64, error) {
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		return 0, fmt.Errorf("HOSTNAME is not set")
	}

	h := fnv.New64a()
	h.Write([]byte(hostname))
	nodeID := int64(binary.BigEndian.Uint64(h.Sum(nil)) % 1024)

	return nodeID, nil
}
