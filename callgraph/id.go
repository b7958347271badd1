package callgraph

import (
	"fmt"

	"github.com/minio/highwayhash"
)

var idKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// NodeID derives a stable identifier for a function from its file path,
// qualified name and declaration line. The same function always maps to the
// same id across scans, which keeps incremental updates and ranking stable.
func NodeID(file, qualifiedName string, line int) string {
	h, err := highwayhash.New64(idKey)
	if err != nil {
		// the key is a compile-time constant of valid length
		panic(err)
	}
	fmt.Fprintf(h, "%s|%s|%d", file, qualifiedName, line)
	return fmt.Sprintf("%016x", h.Sum64())
}
