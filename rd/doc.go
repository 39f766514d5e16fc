// Package rd scans reference manual documents for method entries and
// checks that each entry documents exactly the parameters its signatures
// declare.
//
// # Entries
//
// A method entry starts with one or more signature lines and is followed
// by optional properties and a body:
//
//	--- index(val) -> Integer | nil
//	--- index {|item| ... } -> Integer | nil
//	: since: 1.8.7
//
//	Returns the index of the first matching element.
//
//	@param val the value to look for
//	@return the index or nil
//
// The entry ends at a headline ("=" or "=="), at the next signature line,
// or at the end of the input. Lines of three or more "=" are decorative
// and do not end the entry.
//
// # Body
//
// The body is scanned line by line. The first line of each construct
// decides which consumer owns it, in this order:
//
//	===...           separator, discarded
//	= / ==           headline, ends the entry (an error in strict mode)
//	---              next signature, ends the entry
//	  * item         unordered list
//	  (1) item       ordered list
//	: term           definition list
//	//emlist{        literal block up to "//}", never interpreted
//	  indented       indented block
//	...@see...       see reference plus indented continuation
//	@tag             metadata tags
//	(blank)          discarded
//	text             paragraph
//
// Every consumer stops before the first line it does not own, which is
// then dispatched again.
//
// # Metadata tags
//
// "@param name" and "@arg name" declare a parameter. "@raise", "@return"
// and "@todo" are accepted silently; any other tag is reported through
// [Handler.UnknownTag]. The text after a tag may continue on indented
// lines and literal blocks. A blank line ends the tag.
//
// # Strictness
//
// By default the scanner is lenient: a headline inside an entry just ends
// the entry, and a literal block missing its "//}" runs to the end of the
// input. [WithStrict] turns both into errors.
package rd
