package sync

import "boostysync/internal/models"

// Planner turns crawl output into download tasks. It is pure: no I/O,
// no clock, deterministic for a given input.
type Planner struct {
	OutputDir  string
	ChannelDir bool
	SeasonDir  bool
}

// Plan reconciles the crawled posts against the local library and emits
// one task per downloadable item, preserving feed order. A post is
// selected only when it is classified as video, accessible, and its id
// is not already embedded in a local filename.
func (p Planner) Plan(posts []models.Post, types map[string]models.MediaType, existing map[string]struct{}) []models.DownloadTask {
	var tasks []models.DownloadTask
	for _, post := range posts {
		if types[post.ID] != models.MediaVideo {
			continue
		}
		if _, ok := existing[post.ID]; ok {
			continue
		}
		if !post.HasAccess {
			continue
		}

		season, episode := SeasonEpisode(post.CreatedAt)
		tasks = append(tasks, models.DownloadTask{
			Post:      post,
			Season:    season,
			Episode:   episode,
			TargetDir: TargetDir(p.OutputDir, post.Channel, season, p.ChannelDir, p.SeasonDir),
			Filename:  Filename(post),
		})
	}
	return tasks
}
