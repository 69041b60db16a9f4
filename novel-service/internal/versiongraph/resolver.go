package versiongraph

import (
	"github.com/google/uuid"

	"inkwell-server/shared/models"
)

// ResolveRoot возвращает корень линии узла. Узел с parentVersionId == nil —
// сам себе корень. models.ErrNotFound для неизвестного id,
// models.ErrCyclicLineage/ErrInvalidParent для испорченных линий.
func (s *Snapshot) ResolveRoot(id uuid.UUID) (*models.VersionNode, error) {
	if _, ok := s.byID[id]; !ok {
		return nil, models.ErrNotFound
	}
	rootID, ok := s.resolvedRoots[id]
	if !ok {
		// Причина порчи зафиксирована при построении снапшота.
		for _, c := range s.corrupt {
			if c.NodeID == id {
				return nil, c.Err
			}
		}
		return nil, models.ErrCyclicLineage
	}
	root, _ := s.node(rootID)
	return root, nil
}

// SiblingsOfRoot возвращает все узлы, чей вычисленный корень равен rootID,
// в порядке арены. Узлы с неразрешимой линией не попадают в выборку.
func (s *Snapshot) SiblingsOfRoot(rootID uuid.UUID) []models.VersionNode {
	siblings := make([]models.VersionNode, 0)
	for i := range s.arena {
		if s.resolvedRoots[s.arena[i].ID] == rootID {
			siblings = append(siblings, s.arena[i])
		}
	}
	return siblings
}

// TotalVersions — размер линии rootID.
func (s *Snapshot) TotalVersions(rootID uuid.UUID) int {
	return len(s.SiblingsOfRoot(rootID))
}

// IsLatest сообщает, является ли node новейшим узлом среди siblings.
// Новизну определяет metadata.createdAt, а не величина versionNumber:
// ветка, созданная позже ревизии, считается latest даже с меньшим номером.
// Равенство createdAt разрешается в пользу лексикографически большего id,
// поэтому latest в непустой линии ровно один.
func IsLatest(node *models.VersionNode, siblings []models.VersionNode) bool {
	for i := range siblings {
		other := &siblings[i]
		if other.ID == node.ID {
			continue
		}
		if other.Metadata.CreatedAt.After(node.Metadata.CreatedAt) {
			return false
		}
		if other.Metadata.CreatedAt.Equal(node.Metadata.CreatedAt) && other.ID.String() > node.ID.String() {
			return false
		}
	}
	return true
}
