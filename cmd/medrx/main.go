// medrx is the annotation and export command line tool.
package main

import "github.com/turtacn/MedRx-Intelligence/internal/interfaces/cli"

func main() {
	cli.Execute()
}
