package workflow

import (
	"log/slog"

	"paperreel/internal/queue"
	"paperreel/internal/stage"
)

// StageSet bundles the concrete pipeline handlers the manager orchestrates.
type StageSet struct {
	Extractor    stage.Handler
	Storyboarder stage.Handler
	Imager       stage.Handler
	Animator     stage.Handler
	Localizer    stage.Handler
	Narrator     stage.Handler
	Captioner    stage.Handler
	Voicer       stage.Handler
	Merger       stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

type laneState struct {
	lane        queue.ProcessingLane
	name        string
	stages      []pipelineStage
	statusOrder []queue.Status
	stageByStart map[queue.Status]pipelineStage
	logger      *slog.Logger
}

func (l *laneState) finalize() {
	if l == nil {
		return
	}
	l.stageByStart = make(map[queue.Status]pipelineStage, len(l.stages))
	l.statusOrder = make([]queue.Status, 0, len(l.stages))
	for _, stg := range l.stages {
		l.stageByStart[stg.startStatus] = stg
		l.statusOrder = append(l.statusOrder, stg.startStatus)
	}
}

func (l *laneState) stageForStatus(status queue.Status) (pipelineStage, bool) {
	if l == nil {
		return pipelineStage{}, false
	}
	stg, ok := l.stageByStart[status]
	return stg, ok
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	document := &laneState{lane: queue.LaneDocument, name: "document"}
	render := &laneState{lane: queue.LaneRender, name: "render"}

	add := func(lane *laneState, name string, handler stage.Handler, start, processing, done queue.Status) {
		if handler == nil {
			return
		}
		lane.stages = append(lane.stages, pipelineStage{
			name:             name,
			handler:          handler,
			startStatus:      start,
			processingStatus: processing,
			doneStatus:       done,
		})
	}

	add(document, "extraction", set.Extractor, queue.StatusPending, queue.StatusExtracting, queue.StatusExtracted)
	add(document, "storyboard", set.Storyboarder, queue.StatusExtracted, queue.StatusStoryboarding, queue.StatusStoryboarded)

	add(render, "imaging", set.Imager, queue.StatusStoryboarded, queue.StatusImaging, queue.StatusImaged)
	add(render, "animation", set.Animator, queue.StatusImaged, queue.StatusAnimating, queue.StatusAnimated)
	add(render, "localization", set.Localizer, queue.StatusAnimated, queue.StatusLocalizing, queue.StatusLocalized)
	add(render, "narration", set.Narrator, queue.StatusLocalized, queue.StatusNarrating, queue.StatusNarrated)
	add(render, "captioning", set.Captioner, queue.StatusNarrated, queue.StatusCaptioning, queue.StatusCaptioned)
	add(render, "voicing", set.Voicer, queue.StatusCaptioned, queue.StatusVoicing, queue.StatusVoiced)
	add(render, "merge", set.Merger, queue.StatusVoiced, queue.StatusMerging, queue.StatusCompleted)

	lanes := make(map[queue.ProcessingLane]*laneState)
	order := make([]queue.ProcessingLane, 0, 2)
	for _, lane := range []*laneState{document, render} {
		if len(lane.stages) == 0 {
			continue
		}
		lane.finalize()
		lanes[lane.lane] = lane
		order = append(order, lane.lane)
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
