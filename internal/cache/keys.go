package cache

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Key prefixes. Every cached key starts with one of these.
const (
	JobListPrefix          = "jobs:list:"
	JobDetailPrefix        = "jobs:detail:"
	JobStatsPrefix         = "jobs:stats:"
	JobDepartmentsKey      = "jobs:departments"
	ApplicationStatsPrefix = "applications:stats:"
)

// JobListKey derives the listing key from the full filter and pagination tuple.
func JobListKey(query interface{}) string {
	b, err := json.Marshal(query)
	if err != nil {
		return fmt.Sprintf("%s%+v", JobListPrefix, query)
	}
	return JobListPrefix + string(b)
}

// JobDetailKey is the key of a single job posting.
func JobDetailKey(id uuid.UUID) string {
	return JobDetailPrefix + id.String()
}

// JobStatsKey is the key of one owner's posting counters.
func JobStatsKey(owner uuid.UUID) string {
	return JobStatsPrefix + owner.String()
}

// ApplicationStatsKey is the key of one job's per status application counts.
func ApplicationStatsKey(jobID uuid.UUID) string {
	return ApplicationStatsPrefix + jobID.String()
}

// InvalidateJobPosting drops every key that can hold data of the posting:
// all listings, the department facet, its detail and any key naming its owner.
func (c *Cache) InvalidateJobPosting(id, owner uuid.UUID) {
	if c == nil {
		return
	}
	c.InvalidatePrefix(JobListPrefix)
	c.Delete(JobDepartmentsKey)
	if id != uuid.Nil {
		c.Delete(JobDetailKey(id))
	}
	if owner != uuid.Nil {
		c.InvalidateContaining(owner.String())
	}
}

// InvalidateApplications drops every key that can hold application data of the
// job. Job detail keys carry no application data, their counts are read live.
func (c *Cache) InvalidateApplications(jobID uuid.UUID) {
	if c == nil {
		return
	}
	c.Delete(ApplicationStatsKey(jobID))
}
