// Package textutil provides the character-class checks used to validate chat
// arguments and the filesystem keys derived from catalog hashes.
package textutil
