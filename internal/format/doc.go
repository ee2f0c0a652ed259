// Package format turns backend values into the text shown on the dashboard:
// prices, percentage changes, relative ages and the small label mappings
// used by form controls.
package format
