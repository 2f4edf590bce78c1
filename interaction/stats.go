package interaction

import "fmt"

// InteractorInfo is a snapshot of one interactor for inspection tools.
type InteractorInfo struct {
	ID                      Identifier
	Name                    string
	State                   InteractorState
	Depth                   int
	IsGroup                 bool
	IsWinner                bool
	RootDriver              bool
	HasCandidate            bool
	HasInteractable         bool
	HasSelectedInteractable bool
}

// Stats summarises a tree of interactors.
type Stats struct {
	InteractorCount int
	GroupCount      int
	StateCounts     map[InteractorState]int
	Interactors     []InteractorInfo
}

// CollectStats walks roots depth first, descending into groups.
func CollectStats(roots ...Interactor) *Stats {
	stats := &Stats{
		StateCounts: make(map[InteractorState]int),
	}
	for _, root := range roots {
		collect(stats, root, 0, false)
	}
	return stats
}

func collect(stats *Stats, interactor Interactor, depth int, winner bool) {
	info := InteractorInfo{
		ID:                      interactor.ID(),
		Name:                    nameOf(interactor),
		State:                   interactor.State(),
		Depth:                   depth,
		IsWinner:                winner,
		RootDriver:              interactor.IsRootDriver(),
		HasCandidate:            interactor.HasCandidate(),
		HasInteractable:         interactor.HasInteractable(),
		HasSelectedInteractable: interactor.HasSelectedInteractable(),
	}

	group, isGroup := interactor.(*Group)
	info.IsGroup = isGroup
	stats.Interactors = append(stats.Interactors, info)
	if isGroup {
		stats.GroupCount++
	} else {
		stats.InteractorCount++
		stats.StateCounts[info.State]++
	}

	if !isGroup {
		return
	}
	for _, child := range group.interactors {
		collect(stats, child, depth+1, child == group.candidateInteractor)
	}
}

func nameOf(interactor Interactor) string {
	if named, ok := interactor.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T%s", interactor, interactor.ID())
}
