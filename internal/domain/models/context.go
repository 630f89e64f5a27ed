package models

// ConversationContext holds per-user navigation state for the signal flow.
// Backup* fields are the snapshot taken when the user entered a signal view;
// only the context manager's EnterSignalView may write them.
type ConversationContext struct {
	UserID string `json:"userId"`

	CurrentInstrument string `json:"currentInstrument"`
	CurrentDirection  string `json:"currentDirection"`
	CurrentTimeframe  string `json:"currentTimeframe"`

	BackupInstrument string `json:"backupInstrument"`
	BackupDirection  string `json:"backupDirection"`
	BackupTimeframe  string `json:"backupTimeframe"`

	// BackupTaken is true once a signal view has been entered. The snapshot
	// fields alone cannot signal presence because timeframe is optional.
	BackupTaken bool `json:"backupTaken"`

	// InSignalFlow is true while the user is anywhere inside the
	// signal-derived navigation subtree.
	InSignalFlow bool `json:"inSignalFlow"`

	// FromSignal is true when the currently displayed sub-view was entered
	// from a signal view rather than from the main menu.
	FromSignal bool `json:"fromSignal"`
}

// HasBackup reports whether a signal view snapshot exists to restore.
func (c *ConversationContext) HasBackup() bool {
	return c.BackupTaken
}
