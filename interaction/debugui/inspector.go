package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/interact/interaction"
)

var stateColors = map[interaction.InteractorState]imgui.Vec4{
	interaction.StateNormal:   imgui.NewVec4(0.8, 0.8, 0.8, 1),
	interaction.StateHover:    imgui.NewVec4(1.0, 0.85, 0.3, 1),
	interaction.StateSelect:   imgui.NewVec4(0.4, 1.0, 0.4, 1),
	interaction.StateDisabled: imgui.NewVec4(0.5, 0.5, 0.5, 1),
}

// Inspector lists every interactor reachable from Roots with its state,
// candidate and bindings. Group members are indented under their group.
type Inspector struct {
	Roots func() []interaction.Interactor

	filterText    string
	flat          bool
	sortColumn    int
	sortAscending bool
	selected      interaction.Identifier
}

func NewInspector(roots func() []interaction.Interactor) *Inspector {
	return &Inspector{Roots: roots, sortAscending: true}
}

// Selected returns the identifier last clicked in the table, 0 if none.
func (in *Inspector) Selected() interaction.Identifier {
	return in.selected
}

func (in *Inspector) Render() {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(460, 320), imgui.CondOnce)
	if !imgui.BeginV("Interactors", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	stats := interaction.CollectStats(in.Roots()...)
	imgui.Text(fmt.Sprintf("Interactors: %d | Groups: %d", stats.InteractorCount, stats.GroupCount))
	for _, s := range []interaction.InteractorState{
		interaction.StateNormal, interaction.StateHover, interaction.StateSelect, interaction.StateDisabled,
	} {
		imgui.SameLine()
		imgui.TextColored(stateColors[s], fmt.Sprintf("%s: %d", s, stats.StateCounts[s]))
	}

	imgui.InputTextWithHint("##filter", "Filter...", &in.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	imgui.Checkbox("Flat", &in.flat)

	rows := in.rows(stats.Interactors)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("InteractorTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("ID")
		imgui.TableSetupColumn("State")
		imgui.TableSetupColumn("Candidate")
		imgui.TableSetupColumn("Bound")
		imgui.TableHeadersRow()

		if in.flat {
			sortSpecs := imgui.TableGetSortSpecs()
			if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
				spec := sortSpecs.Specs()
				in.sortColumn = int(spec.ColumnIndex())
				in.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
				sortSpecs.SetSpecsDirty(false)
			}
			in.sortRows(rows)
		}

		for _, info := range rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			label := info.Name
			if !in.flat {
				label = strings.Repeat("  ", info.Depth) + label
			}
			if info.IsWinner {
				label += " *"
			}
			if imgui.SelectableBoolV(label, in.selected == info.ID, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				in.selected = info.ID
			}

			imgui.TableNextColumn()
			imgui.Text(info.ID.String())

			imgui.TableNextColumn()
			imgui.TextColored(stateColors[info.State], info.State.String())

			imgui.TableNextColumn()
			imgui.Text(yesNo(info.HasCandidate))

			imgui.TableNextColumn()
			switch {
			case info.HasSelectedInteractable:
				imgui.Text("selected")
			case info.HasInteractable:
				imgui.Text("hovered")
			default:
				imgui.Text("-")
			}
		}
		imgui.EndTable()
	}

	imgui.End()
}

func (in *Inspector) rows(all []interaction.InteractorInfo) []interaction.InteractorInfo {
	if in.filterText == "" {
		return all
	}
	filter := strings.ToLower(in.filterText)
	rows := make([]interaction.InteractorInfo, 0, len(all))
	for _, info := range all {
		if strings.Contains(strings.ToLower(info.Name), filter) ||
			strings.Contains(strings.ToLower(info.State.String()), filter) {
			rows = append(rows, info)
		}
	}
	return rows
}

func (in *Inspector) sortRows(rows []interaction.InteractorInfo) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var less bool
		switch in.sortColumn {
		case 1:
			less = a.ID < b.ID
		case 2:
			less = a.State < b.State
		case 3:
			less = !a.HasCandidate && b.HasCandidate
		default:
			less = a.Name < b.Name
		}
		if !in.sortAscending {
			return !less
		}
		return less
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
