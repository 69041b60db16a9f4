// Package versiongraph содержит чистое ядро графа версий иллюстраций:
// снапшот с разрешением корней, вычисление фактов линии (latest, totals),
// детерминированное обогащение записей генерации и фильтры/сортировки
// поверх обогащённого списка. Пакет не ходит в БД и не пишет логи —
// все операции синхронны и свободны от побочных эффектов.
package versiongraph

import (
	"github.com/google/uuid"

	"inkwell-server/shared/models"
)

// Snapshot — неизменяемый срез графа версий: плоская арена узлов плюс
// индекс по id. Корень каждого узла разрешается при построении, а не
// читается из rootVersionId вслепую: расхождения и циклы фиксируются.
type Snapshot struct {
	arena []models.VersionNode
	byID  map[uuid.UUID]int

	// resolvedRoots[i] — вычисленный корень arena[i]; записи нет, если
	// разрешение упёрлось в цикл или оборванного родителя.
	resolvedRoots map[uuid.UUID]uuid.UUID
	corrupt       []CorruptNode
	rootMismatch  []uuid.UUID
}

// CorruptNode описывает узел, чью линию не удалось разрешить.
type CorruptNode struct {
	NodeID uuid.UUID
	Err    error
}

// NewSnapshot строит снапшот из плоского списка узлов. Список копируется;
// последующие мутации исходного среза на снапшот не влияют.
func NewSnapshot(nodes []models.VersionNode) *Snapshot {
	s := &Snapshot{
		arena:         make([]models.VersionNode, len(nodes)),
		byID:          make(map[uuid.UUID]int, len(nodes)),
		resolvedRoots: make(map[uuid.UUID]uuid.UUID, len(nodes)),
	}
	copy(s.arena, nodes)
	for i := range s.arena {
		s.byID[s.arena[i].ID] = i
	}

	// Обход арены по порядку, чтобы список повреждений был детерминирован.
	for i := range s.arena {
		node := &s.arena[i]
		rootID, err := s.walkToRoot(node.ID)
		if err != nil {
			s.corrupt = append(s.corrupt, CorruptNode{NodeID: node.ID, Err: err})
			continue
		}
		s.resolvedRoots[node.ID] = rootID
		if node.RootVersionID != rootID {
			s.rootMismatch = append(s.rootMismatch, node.ID)
		}
	}
	return s
}

// walkToRoot идёт по parentVersionId до корня. Обход ограничен числом
// узлов в снапшоте: превышение означает цикл в данных.
func (s *Snapshot) walkToRoot(id uuid.UUID) (uuid.UUID, error) {
	current, ok := s.node(id)
	if !ok {
		return uuid.Nil, models.ErrNotFound
	}
	for steps := 0; ; steps++ {
		if steps > len(s.arena) {
			return uuid.Nil, models.ErrCyclicLineage
		}
		if current.ParentVersionID == nil {
			return current.ID, nil
		}
		parent, ok := s.node(*current.ParentVersionID)
		if !ok {
			// Оборванный родитель — та же категория порчи, что и цикл:
			// линия не разрешается до корня.
			return uuid.Nil, models.ErrInvalidParent
		}
		current = parent
	}
}

func (s *Snapshot) node(id uuid.UUID) (*models.VersionNode, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.arena[i], true
}

// Get возвращает узел по id.
func (s *Snapshot) Get(id uuid.UUID) (*models.VersionNode, bool) {
	return s.node(id)
}

// Nodes возвращает узлы арены в порядке построения снапшота.
func (s *Snapshot) Nodes() []models.VersionNode {
	out := make([]models.VersionNode, len(s.arena))
	copy(out, s.arena)
	return out
}

// Len — число узлов в снапшоте.
func (s *Snapshot) Len() int {
	return len(s.arena)
}

// CorruptNodes перечисляет узлы с неразрешимой линией (циклы, оборванные
// родители) в детерминированном порядке. Вызывающий логирует их и исключает
// из обогащения; сам снапшот остаётся рабочим.
func (s *Snapshot) CorruptNodes() []CorruptNode {
	out := make([]CorruptNode, len(s.corrupt))
	copy(out, s.corrupt)
	return out
}

// RootMismatches перечисляет узлы, у которых сохранённый rootVersionId не
// совпал с вычисленным корнем. Для всех вычислений используется вычисленный
// корень; расхождение — сигнал о порче данных для лога.
func (s *Snapshot) RootMismatches() []uuid.UUID {
	out := make([]uuid.UUID, len(s.rootMismatch))
	copy(out, s.rootMismatch)
	return out
}

func (s *Snapshot) isCorrupt(id uuid.UUID) bool {
	_, ok := s.resolvedRoots[id]
	return !ok
}
