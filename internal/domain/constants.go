package domain

// Row Statuses
const (
	RowStatusNew           = "new"
	RowStatusNewDirty      = "new-dirty"
	RowStatusExisting      = "existing"
	RowStatusExistingDirty = "existing-dirty"
)

// Session Modes
const (
	SessionModeAdd  = "add"
	SessionModeEdit = "edit"
)

// Notice Levels
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Group move directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Image attach modes. Primary is the default and is not sent to the API.
const (
	ImageModePrimary = "primary"
	ImageModeAppend  = "append"
)

// Selection actions
const (
	SelectionToggle = "toggle"
	SelectionAll    = "all"
	SelectionClear  = "clear"
)

const (
	MessageNoChanges        = "No changes to save."
	MessageSaveFirst        = "Save the variant first, then upload image."
	MessageSaveFailed       = "Save failed"
	MessageSaveInProgress   = "A save is already in progress."
	MessageLoadFailed       = "Failed to load variants"
	MessageProductsFailed   = "Failed to load products"
	MessageReloadAfterSave  = "Saved, but the variants could not be reloaded. Reload to continue."
	MessageImageFailed      = "Image upload failed"
	MessageImageUploaded    = "Image uploaded"
	MessageNothingToApply   = "Enter a price, compare-at price or inventory to apply."
	MessageGroupsSynced     = "Options synced from saved variants."
	MessageVariantsReloaded = "Variants reloaded."
)
