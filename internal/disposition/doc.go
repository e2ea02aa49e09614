// Package disposition defines the composite key (scope, level, component,
// aspect) that identifies one parameter or variable family, and the element
// key that adds a temporal index to it.
//
// Keys have a canonical text form used in logs, LP exports and snapshots:
//
//	component.aspect@scope:level
//	component.aspect@scope:level[0,2]
package disposition
