//go:build windows

package webgpu

// workgroupSize is the thread count of the 1-D convolution kernels.
const workgroupSize = 256

// maxWorkgroups is the per-dimension dispatch limit WebGPU guarantees.
const maxWorkgroups = 65535

// matmulShader computes C = A · B for A [M, K] and B [K, N].
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,
    K: u32,
    N: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        sum = sum + a[row * params.K + k] * b[k * params.N + col];
    }
    result[row * params.N + col] = sum;
}
`

// convParams is shared by all convolution kernels.
const convParams = `
struct Params {
    batch: u32,
    h: u32,
    w: u32,
    d: u32,
    oh: u32,
    ow: u32,
    f: u32,
    k: u32,
}
`

// convForwardShader: one invocation per output element [b][f][i][j].
const convForwardShader = convParams + `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernels: array<f32>;
@group(0) @binding(2) var<storage, read_write> output: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.batch * params.f * params.oh * params.ow) {
        return;
    }

    let j = idx % params.ow;
    let i = (idx / params.ow) % params.oh;
    let f = (idx / (params.ow * params.oh)) % params.f;
    let b = idx / (params.ow * params.oh * params.f);

    var sum: f32 = 0.0;
    for (var d: u32 = 0u; d < params.d; d = d + 1u) {
        for (var ki: u32 = 0u; ki < params.k; ki = ki + 1u) {
            for (var kj: u32 = 0u; kj < params.k; kj = kj + 1u) {
                let in_idx = ((b * params.d + d) * params.h + i + ki) * params.w + j + kj;
                let k_idx = ((f * params.d + d) * params.k + ki) * params.k + kj;
                sum = sum + input[in_idx] * kernels[k_idx];
            }
        }
    }
    output[idx] = sum;
}
`

// convKernelGradShader: one invocation per kernel weight [f][d][ki][kj].
const convKernelGradShader = convParams + `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> delta: array<f32>;
@group(0) @binding(2) var<storage, read_write> dkernels: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.f * params.d * params.k * params.k) {
        return;
    }

    let kj = idx % params.k;
    let ki = (idx / params.k) % params.k;
    let d = (idx / (params.k * params.k)) % params.d;
    let f = idx / (params.k * params.k * params.d);

    var sum: f32 = 0.0;
    for (var b: u32 = 0u; b < params.batch; b = b + 1u) {
        for (var i: u32 = 0u; i < params.oh; i = i + 1u) {
            for (var j: u32 = 0u; j < params.ow; j = j + 1u) {
                let in_idx = ((b * params.d + d) * params.h + i + ki) * params.w + j + kj;
                let d_idx = ((b * params.f + f) * params.oh + i) * params.ow + j;
                sum = sum + input[in_idx] * delta[d_idx];
            }
        }
    }
    dkernels[idx] = sum;
}
`

// convBiasGradShader: one invocation per filter.
const convBiasGradShader = convParams + `
@group(0) @binding(0) var<storage, read> delta: array<f32>;
@group(0) @binding(1) var<storage, read_write> dbias: array<f32>;
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let f = global_id.x;
    if (f >= params.f) {
        return;
    }

    let plane = params.oh * params.ow;
    var sum: f32 = 0.0;
    for (var b: u32 = 0u; b < params.batch; b = b + 1u) {
        let base = (b * params.f + f) * plane;
        for (var p: u32 = 0u; p < plane; p = p + 1u) {
            sum = sum + delta[base + p];
        }
    }
    dbias[f] = sum;
}
`

// convInputGradShader: one invocation per input element [b][d][y][x].
const convInputGradShader = convParams + `
@group(0) @binding(0) var<storage, read> delta: array<f32>;
@group(0) @binding(1) var<storage, read> kernels: array<f32>;
@group(0) @binding(2) var<storage, read_write> prev: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.batch * params.d * params.h * params.w) {
        return;
    }

    let x = idx % params.w;
    let y = (idx / params.w) % params.h;
    let d = (idx / (params.w * params.h)) % params.d;
    let b = idx / (params.w * params.h * params.d);

    var sum: f32 = 0.0;
    for (var f: u32 = 0u; f < params.f; f = f + 1u) {
        for (var ki: u32 = 0u; ki < params.k; ki = ki + 1u) {
            if (y < ki || y - ki >= params.oh) {
                continue;
            }
            for (var kj: u32 = 0u; kj < params.k; kj = kj + 1u) {
                if (x < kj || x - kj >= params.ow) {
                    continue;
                }
                let d_idx = ((b * params.f + f) * params.oh + y - ki) * params.ow + x - kj;
                let k_idx = ((f * params.d + d) * params.k + ki) * params.k + kj;
                sum = sum + delta[d_idx] * kernels[k_idx];
            }
        }
    }
    prev[idx] = sum;
}
`
