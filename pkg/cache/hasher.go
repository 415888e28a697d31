package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"strconv"

	"maxflow/pkg/solverapi"
)

const keyPrefix = "maxflow:solve:"

// NetworkHash вычисляет хеш сети для ключа кэша.
// Узлы считаются множеством, порядок дуг значим: по нему индексируются потоки.
func NetworkHash(network *solverapi.Network) string {
	if network == nil {
		return ""
	}

	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	put(uint64(network.Source))
	put(uint64(network.Target))

	nodes := slices.Clone(network.Nodes)
	slices.Sort(nodes)
	put(uint64(len(nodes)))
	for _, id := range nodes {
		put(uint64(id))
	}

	put(uint64(len(network.Arcs)))
	for _, a := range network.Arcs {
		put(uint64(a.From))
		put(uint64(a.To))
		put(math.Float64bits(a.Capacity))
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// BuildSolveKey строит ключ кэша для результата решения
func BuildSolveKey(networkHash string, mode solverapi.Mode, epsilon float64) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, mode, strconv.FormatFloat(epsilon, 'g', -1, 64), networkHash)
}
