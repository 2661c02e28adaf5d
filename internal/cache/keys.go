package cache

// Host handles pushed in by the lifecycle collaborator. The data manager and
// resource table outlive a run; everything else is dropped by ClearSession.
const (
	KeyDataManager    = "handle/data_manager"
	KeyResources      = "handle/resources"
	KeySession        = "handle/session"
	KeySelected       = "handle/selected_affinity"
	KeySelectedRecord = "handle/selected_affinity_ref"
	KeyScreen         = "handle/screen"
)
