// Package render defines the drawing vocabulary shared by the effect.
//
// The simulation never paints pixels. Entities draw onto a Surface, and the
// Canvas implementation of Surface records the calls as a display list. A
// snapshot of that list is a Frame, which is what the service and the
// broadcast server hand to browser clients for painting.
package render
