// Package viz renders density fields in the terminal.
//
//   - [Canvas]: braille pixel canvas, 2x4 dots per character
//   - [DensityMap]: particles on a canvas, coloured by deviation from rho0
//   - lipgloss styles shared by the CLI reports
package viz
