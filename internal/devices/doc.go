// Package devices watches the volumes directory for removable drives
// being mounted and unmounted, with debounced change notifications.
package devices
