package renderer

// AnimationGroup is the ordered collection of (hash, Animation,
// accessed) entries belonging to one layout on one device (spec.md
// §3), grounded in original_source's renderer/animation_group.rs.
// A group may run loosely — each member wraps independently — or
// keep_in_sync, wrapping together only once every member can wrap.
type AnimationGroup struct {
	items      []groupItem
	newData    bool
	keepInSync bool
}

type groupItem struct {
	hash      uint64
	animation *Animation
	accessed  bool
}

// NewAnimationGroup returns an empty group with the given sync mode.
func NewAnimationGroup(keepInSync bool) *AnimationGroup {
	return &AnimationGroup{keepInSync: keepInSync}
}

// GetOrCreate returns the Animation for hash, creating it via build if
// absent, and marks the entry accessed this tick (animation_group.rs's
// Entry::or_insert_with).
func (g *AnimationGroup) GetOrCreate(hash uint64, build func() *Animation) *Animation {
	for i := range g.items {
		if g.items[i].hash == hash {
			g.items[i].accessed = true
			return g.items[i].animation
		}
	}
	g.newData = true
	g.items = append(g.items, groupItem{hash: hash, animation: build(), accessed: true})
	return g.items[len(g.items)-1].animation
}

// PreSync prunes entries that were not accessed since the last
// pre_sync call, and, when running keep_in_sync, resets every
// remaining entry if new data was added this tick (animation_group.rs
// pre_sync).
func (g *AnimationGroup) PreSync() {
	kept := g.items[:0]
	for _, item := range g.items {
		if !item.accessed {
			continue
		}
		if g.newData && g.keepInSync {
			item.animation.Reset()
		}
		item.accessed = false
		kept = append(kept, item)
	}
	g.items = kept
	g.newData = false
}

// Sync resets wrapped members after rendering: in keep_in_sync mode,
// only when every member can wrap; otherwise each member
// independently (animation_group.rs sync).
func (g *AnimationGroup) Sync() {
	if g.keepInSync {
		allCanWrap := true
		for _, item := range g.items {
			if !item.animation.CanWrap() {
				allCanWrap = false
				break
			}
		}
		if allCanWrap {
			for _, item := range g.items {
				item.animation.Reset()
			}
		}
		return
	}
	for _, item := range g.items {
		if item.animation.CanWrap() {
			item.animation.Reset()
		}
	}
}

// States returns the lifecycle state of every member, used to derive
// the layout's overall animation state (spec.md §4.4).
func (g *AnimationGroup) States() []AnimState {
	states := make([]AnimState, len(g.items))
	for i, item := range g.items {
		states[i] = item.animation.State()
	}
	return states
}

// LayoutState derives the layout-wide state from member states per
// spec.md §4.4: Finished if all members are Finished; else InProgress
// if any member is InProgress; else CanFinish.
func LayoutState(states []AnimState) AnimState {
	if len(states) == 0 {
		return StateFinished
	}
	allFinished := true
	anyInProgress := false
	for _, s := range states {
		if s != StateFinished {
			allFinished = false
		}
		if s == StateInProgress {
			anyInProgress = true
		}
	}
	if allFinished {
		return StateFinished
	}
	if anyInProgress {
		return StateInProgress
	}
	return StateCanFinish
}
