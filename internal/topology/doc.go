// Package topology resolves interaction messages against the static
// component/connection model.
//
// A Graph is the view of the topology from one group target: the nodes owned
// by the target, the connections strictly inside it and the connections
// crossing its boundary. A Resolver maps a message topic and its two actors
// to the candidate connections that can carry it and to the concrete wire
// (namespace node, event and direction) the message is lowered onto.
//
// Resolution never fails on ambiguity. Zero or several candidates for a
// message between two component actors is reported through
// Resolution.Resolved and left to the caller, which surfaces it as a
// diagnostic.
//
// Usage:
//
//	graph, err := topology.NewGraph(spec.Topology, group.Target)
//	if err != nil {
//	    return err
//	}
//	res := topology.NewResolver(graph).Resolve(msg.Topic, msg.From, msg.To)
//	if !res.Resolved() {
//	    // report res.Candidates
//	}
package topology
