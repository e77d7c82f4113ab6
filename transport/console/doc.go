// Package console implements the line-oriented command interpreter.
//
// A Processor wraps one engine and answers commands such as
// "set size 10 10", "place 0 0 4 h", "start" and "shot 3 4" with the plain
// text replies a terminal player sees. After a human miss the processor lets
// the engine take its whole turn and appends one line per enemy shot.
//
// Boards render as a grid with "." for water, the ship size for an intact own
// ship cell, "X" for a hit, "O" for a miss and "#" for a destroyed ship.
// The reveal command additionally shows unhit enemy ships as "S".
package console
