// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package table provides one concrete adaptation of
// pkg/routing.RoutingTable: a k-bucket table keyed by common leading bits
// of XOR distance from the local name. Buckets never split; the bucket and
// eviction mechanics are rebuilt from the observable contract in
// pkg/kademlia/routing_helpers_test.go (TestAddNode and friends) since the
// teacher's own bucket implementation was pruned from the retrieval pack;
// see DESIGN.md.
package table

import (
	"encoding/binary"
	"sync"

	"go.uber.org/zap"

	"github.com/groupnet/routing/internal/kvstore"
	"github.com/groupnet/routing/internal/routingerrs"
	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
)

// DefaultBucketSize is k, the maximum peers held per bucket.
const DefaultBucketSize = 20

// Table is a k-bucket RoutingTable. Entries live in in-memory bucket
// slices, which every lookup reads; each entry's name -> connection pair
// is also mirrored into an in-memory kvstore.Store.
type Table struct {
	log *zap.Logger

	mu         sync.Mutex
	self       routing.NodeInfo
	bucketSize int
	groupSize  int
	buckets    map[int][]routing.NodeInfo
	store      *kvstore.Store
}

// New returns a Table containing only self.
func New(log *zap.Logger, self routing.NodeInfo, groupSize, bucketSize int) *Table {
	if bucketSize <= 0 {
		bucketSize = DefaultBucketSize
	}
	t := &Table{
		log:        log,
		self:       self,
		bucketSize: bucketSize,
		groupSize:  groupSize,
		buckets:    make(map[int][]routing.NodeInfo),
		store:      kvstore.New(),
	}
	return t
}

func (t *Table) bucketIndex(name routing.Name) int {
	return t.self.PublicID.Name.CommonLeadingBits(name)
}

// Self implements routing.RoutingTable.
func (t *Table) Self() routing.NodeInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.self
}

// WantToAdd implements routing.RoutingTable.
func (t *Table) WantToAdd(name routing.Name) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == t.self.PublicID.Name {
		return false
	}
	idx := t.bucketIndex(name)
	if _, found := t.find(idx, name); found {
		return false
	}
	return len(t.buckets[idx]) < t.bucketSize
}

func (t *Table) find(idx int, name routing.Name) (int, bool) {
	for i, n := range t.buckets[idx] {
		if n.PublicID.Name == name {
			return i, true
		}
	}
	return 0, false
}

// AddNode implements routing.RoutingTable. When a bucket is full, the
// furthest existing peer in that bucket is evicted to make room — a
// simple, deterministic choice the table alone makes, per spec §3
// "Lifecycles: ... on routing-table overflow (table decides the evictee)".
func (t *Table) AddNode(node routing.NodeInfo) (bool, *routing.NodeInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if node.PublicID.Name == t.self.PublicID.Name {
		return false, nil, routingerrs.Refused.New("cannot add self")
	}
	idx := t.bucketIndex(node.PublicID.Name)
	if i, found := t.find(idx, node.PublicID.Name); found {
		t.buckets[idx][i] = node
		t.persist(node)
		return true, nil, nil
	}

	if len(t.buckets[idx]) < t.bucketSize {
		t.buckets[idx] = append(t.buckets[idx], node)
		t.persist(node)
		return true, nil, nil
	}

	// Bucket full: evict whichever current member is furthest from us,
	// but only if the new node is closer.
	furthestPos, furthest := t.furthest(idx)
	if !node.PublicID.Name.CloserThan(furthest.PublicID.Name, t.self.PublicID.Name) {
		return false, nil, nil
	}
	evicted := t.buckets[idx][furthestPos]
	t.buckets[idx][furthestPos] = node
	t.unpersist(evicted.PublicID.Name)
	t.persist(node)
	return true, &evicted, nil
}

func (t *Table) furthest(idx int) (int, routing.NodeInfo) {
	bucket := t.buckets[idx]
	pos := 0
	for i := 1; i < len(bucket); i++ {
		if bucket[i].PublicID.Name.CloserThan(bucket[pos].PublicID.Name, t.self.PublicID.Name) {
			continue
		}
		pos = i
	}
	return pos, bucket[pos]
}

func (t *Table) persist(node routing.NodeInfo) {
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], uint64(node.Connection))
	_ = t.store.Put(kvstore.Key(node.PublicID.Name[:]), kvstore.Value(v[:]))
}

func (t *Table) unpersist(name routing.Name) {
	_ = t.store.Delete(kvstore.Key(name[:]))
}

// DropConnection implements routing.RoutingTable.
func (t *Table) DropConnection(conn transport.Connection) (routing.Name, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for idx, bucket := range t.buckets {
		for i, n := range bucket {
			if n.Connection == conn {
				name := n.PublicID.Name
				t.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
				t.unpersist(name)
				return name, true
			}
		}
	}
	return routing.Name{}, false
}

// DropNode implements routing.RoutingTable.
func (t *Table) DropNode(name routing.Name) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.bucketIndex(name)
	i, found := t.find(idx, name)
	if !found {
		return false
	}
	t.buckets[idx] = append(t.buckets[idx][:i], t.buckets[idx][i+1:]...)
	t.unpersist(name)
	return true
}

// all returns every entry, unsorted.
func (t *Table) all() []routing.NodeInfo {
	var out []routing.NodeInfo
	for _, bucket := range t.buckets {
		out = append(out, bucket...)
	}
	return out
}

// TargetNodes implements routing.RoutingTable: the bucketSize nodes
// closest to dest.
func (t *Table) TargetNodes(dest routing.Name) []routing.NodeInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return closestN(t.all(), dest, t.bucketSize)
}

// OurCloseGroup implements routing.RoutingTable: the groupSize nodes
// closest to our own name.
func (t *Table) OurCloseGroup() []routing.NodeInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return closestN(t.all(), t.self.PublicID.Name, t.groupSize)
}

// AddressInOurCloseGroupRange implements routing.RoutingTable.
func (t *Table) AddressInOurCloseGroupRange(target routing.Name) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	group := closestN(t.all(), target, t.groupSize)
	// We're in range if fewer than groupSize known peers are strictly
	// closer to target than we are.
	closerCount := 0
	for _, n := range group {
		if n.PublicID.Name.CloserThan(t.self.PublicID.Name, target) {
			closerCount++
		}
	}
	return closerCount < t.groupSize
}

// Size implements routing.RoutingTable.
func (t *Table) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.all())
}

// LookUpConnection implements routing.RoutingTable.
func (t *Table) LookUpConnection(name routing.Name) (transport.Connection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.bucketIndex(name)
	if i, found := t.find(idx, name); found {
		return t.buckets[idx][i].Connection, true
	}
	return 0, false
}

// LookUpPublicID implements routing.RoutingTable.
func (t *Table) LookUpPublicID(name routing.Name) (routing.PublicID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.bucketIndex(name)
	if i, found := t.find(idx, name); found {
		return t.buckets[idx][i].PublicID, true
	}
	return routing.PublicID{}, false
}

// closestN returns up to n entries from peers, ordered by ascending
// distance to target.
func closestN(peers []routing.NodeInfo, target routing.Name, n int) []routing.NodeInfo {
	sorted := append([]routing.NodeInfo(nil), peers...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			if sorted[j].PublicID.Name.CloserThan(sorted[j-1].PublicID.Name, target) {
				sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
			} else {
				break
			}
		}
	}
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
