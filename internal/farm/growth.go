package farm

// distributeGrowth runs one growth-distribution pass.
//
// Active plots hold a crop that has not yet matured. With no active plots the
// pass plants one fallow plot instead; either way PendingGrowth ends at 0 —
// growth is never banked across cycles.
func (e *Engine) distributeGrowth() {
	pending := e.state.PendingGrowth
	e.state.PendingGrowth = 0
	if pending <= 0 {
		return
	}

	active := e.activePlots()
	if len(active) == 0 {
		e.plantFirstFallow()
		return
	}

	share := pending / len(active)
	if share < 1 {
		share = 1
	}

	for _, idx := range active {
		e.growPlot(idx, share)
	}
}

// activePlots returns indices of plots whose crop is past planted-and-waiting
// bookkeeping but not yet mature.
func (e *Engine) activePlots() []int {
	var out []int
	for i, p := range e.state.Plots {
		if p.CropID == "" {
			continue
		}
		crop, ok := e.cropByID(p.CropID)
		if !ok {
			continue
		}
		if p.Stage < crop.Stages-1 {
			out = append(out, i)
		}
	}
	return out
}

// growPlot applies amount growth to one plot, advancing stages while the
// accumulated progress covers the crop's grow cost. The remainder carries
// within this plot only. Reaching the final stage harvests the crop: the
// lifetime count increments, the plot is held visually mature, and a one-shot
// delayed replant is scheduled.
func (e *Engine) growPlot(idx int, amount int) {
	p := &e.state.Plots[idx]
	crop, ok := e.cropByID(p.CropID)
	if !ok {
		return
	}

	mature := crop.Stages - 1
	p.GrowthProgress += amount
	for p.GrowthProgress >= crop.GrowCost && p.Stage < mature {
		p.GrowthProgress -= crop.GrowCost
		p.Stage++
	}

	if p.Stage >= mature {
		p.Stage = mature
		p.GrowthProgress = 0
		e.state.Stats.TotalHarvests++
		if e.scheduleReplant != nil {
			e.scheduleReplant(idx)
		}
	}
}

// plantFirstFallow plants the first empty plot with a random unlocked crop.
func (e *Engine) plantFirstFallow() {
	if len(e.state.UnlockedCrops) == 0 {
		return
	}
	for i, p := range e.state.Plots {
		if p.CropID == "" {
			cropID := e.state.UnlockedCrops[e.rng.Intn(len(e.state.UnlockedCrops))]
			e.state.Plots[i] = Plot{CropID: cropID}
			return
		}
	}
}
