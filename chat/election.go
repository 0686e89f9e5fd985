package chat

import "sort"

// Elector decides which node in the cluster owns the authoritative Chat
// Server. A hackathon deployment is expected to run as a single
// process, so a real consensus library (etcd/raft) would be overkill;
// election degenerates to a static, deterministic choice among the
// configured node IDs instead.
type Elector interface {
	// IsLeader reports whether this node currently owns the Chat
	// Server's authoritative state.
	IsLeader() bool
	// LeaderID returns the node ID of whoever currently holds
	// leadership, for ClusterInfo and remote-dispatch addressing.
	LeaderID() string
}

// LocalElector always elects the local node: the single-process
// deployment case. Every call is served locally; RemoteClient is never
// consulted.
type LocalElector struct {
	nodeID string
}

func NewLocalElector(nodeID string) *LocalElector {
	return &LocalElector{nodeID: nodeID}
}

func (l *LocalElector) IsLeader() bool   { return true }
func (l *LocalElector) LeaderID() string { return l.nodeID }

// StaticElector elects the lexicographically-smallest node ID among a
// fixed, pre-configured cluster membership list. It does not detect
// node failure or re-elect; membership is assumed static for the
// lifetime of the process, matching the bounded, short-lived hackathon
// deployments this system targets.
type StaticElector struct {
	nodeID  string
	members []string
}

func NewStaticElector(nodeID string, members []string) *StaticElector {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	return &StaticElector{nodeID: nodeID, members: sorted}
}

func (s *StaticElector) IsLeader() bool {
	return s.LeaderID() == s.nodeID
}

func (s *StaticElector) LeaderID() string {
	if len(s.members) == 0 {
		return s.nodeID
	}
	return s.members[0]
}
