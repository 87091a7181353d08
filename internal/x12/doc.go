// Package x12 reads and writes the raw ANSI X12 wire format.
//
// The interchange header (ISA) is fixed width and declares the delimiters
// used by the rest of the stream:
//
//	ISA*00*          *00*          *ZZ*SENDER         *ZZ*RECEIVER       *230101*1253*^*00501*000000905*0*T*:~
//	   ^ element separator (offset 3)                                     ^ repetition (82)   component (104) ^^ terminator (105)
//
// Delimiters are not escapable. A Tokenizer yields raw segments (tag plus
// ordered elements, each optionally split into components or repetitions);
// an Encoder performs the inverse. Neither knows anything about schemas:
// binding raw segments to descriptors is the document package's job.
package x12
