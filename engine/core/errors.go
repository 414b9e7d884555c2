package core

import (
	"errors"
)

// ErrSwapchainBooting signals that a frame was dropped because the
// swapchain is being rebuilt. Callers should retry next frame.
var ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
