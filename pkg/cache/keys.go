package cache

import "time"

// Separator joins a resource name and its identifier.
const Separator = "_"

// Cacheable resources. Each carries a fixed TTL; callers never pick their own.
const (
	ResourceSchedules     = "schedules"
	ResourceEnrollments   = "enrollments"
	ResourceRosters       = "rosters"
	ResourceConsultations = "consultations"
)

// AllIdentifier stands in for an absent filter value inside a key.
const AllIdentifier = "all"

var resourceTTL = map[string]time.Duration{
	ResourceSchedules:     5 * time.Minute,
	ResourceEnrollments:   2 * time.Minute,
	ResourceRosters:       2 * time.Minute,
	ResourceConsultations: time.Minute,
}

// Key builds the cache key for a resource. An empty identifier yields the bare resource name.
func Key(resource, identifier string) string {
	if identifier == "" {
		return resource
	}
	return resource + Separator + identifier
}

// Pattern matches every identified key of a resource.
func Pattern(resource string) string {
	return resource + Separator + "*"
}

// TTLFor returns the fixed TTL of a resource, or zero so the store default applies.
func TTLFor(resource string) time.Duration {
	return resourceTTL[resource]
}

// StudentKeys lists the per-student keys touched by writes on that student.
func StudentKeys(nationalID string) []string {
	return []string{
		Key(ResourceEnrollments, nationalID),
		Key(ResourceConsultations, nationalID),
	}
}
