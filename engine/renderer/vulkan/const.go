package vulkan

// MaxFramesInFlight is the number of frames the CPU may record ahead of
// the GPU. Each slot owns its own fence, semaphores and uniform buffers.
const MaxFramesInFlight = 2

// MaxTextures is the capacity of the bindless sampled-image array. Every
// texture uploaded at runtime occupies one slot for its lifetime.
const MaxTextures = 64

// Initial size of the shared vertex and index buffers. The buffers are
// recreated with the exact aggregate size whenever scene geometry changes.
const initialBufferSize = 8388608

const descriptorPoolMaxSets = 1024
