// Package drive layers familiar file-system verbs (find, ls, stat, cp,
// mv, mkdir, ln, rm) over the generic gapi client's Drive v3 methods.
// Every verb routes through the same schema validation, capability
// gating, and retry path as a raw gapi.Client.Call.
package drive
