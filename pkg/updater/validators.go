package updater

// updaterNames lists the selectors the trigger endpoint accepts. There
// is one remote today.
var updaterNames = map[string]struct{}{
	"fl": {},
}
