// Command aronvision runs the camera pose pipeline and its dashboard.
package main

func main() {
	Execute()
}
