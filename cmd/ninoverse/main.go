// Command ninoverse serves the ninoverse dispatch tree on SELF_PORT.
package main

import "github.com/advdv/bwalk/nino"

func main() {
	nino.NewApp[nino.BaseEnvironment](nino.NewTree).Run()
}
