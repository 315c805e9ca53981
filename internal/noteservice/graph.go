package noteservice

import (
	"context"

	"github.com/starford/lumina/internal/models"
)

// Graph returns up to nodeLimit of the most recently updated notes and every
// link. Edges are not filtered, so some may point at notes outside the node
// set.
func (s *Service) Graph(ctx context.Context, nodeLimit int) (*models.GraphData, error) {
	if nodeLimit <= 0 {
		nodeLimit = s.graphNodeLimit
	}
	notes, err := s.store.ListNotes(ctx, nodeLimit, 0)
	if err != nil {
		return nil, err
	}
	links, err := s.store.AllLinks(ctx)
	if err != nil {
		return nil, err
	}

	g := &models.GraphData{
		Nodes: make([]models.GraphNode, 0, len(notes)),
		Edges: make([]models.GraphEdge, 0, len(links)),
	}
	for _, n := range notes {
		g.Nodes = append(g.Nodes, models.GraphNode{ID: n.ID, Title: n.Title, IsPinned: n.IsPinned})
	}
	for _, l := range links {
		g.Edges = append(g.Edges, models.GraphEdge{SourceID: l.SourceNoteID, TargetID: l.TargetNoteID, LinkType: l.LinkType})
	}
	return g, nil
}
