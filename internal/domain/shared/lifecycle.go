package shared

// Lifecycle is the archival state of an aggregate. Archived records are
// hidden from normal listings but remain addressable and can be restored;
// nothing is ever soft-deleted through timestamp columns.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleArchived Lifecycle = "archived"
)

// IsValid reports whether the lifecycle value is one of the known states.
func (l Lifecycle) IsValid() bool {
	return l == LifecycleActive || l == LifecycleArchived
}
