package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/core/core1_2"
	"github.com/vkngwrapper/static-triangle/internal/staging"
	"github.com/vkngwrapper/static-triangle/shaders"
)

var colorSubresource = core1_0.ImageSubresourceRange{
	AspectMask:     core1_0.ImageAspectColor,
	BaseMipLevel:   0,
	LevelCount:     1,
	BaseArrayLayer: 0,
	LayerCount:     1,
}

// createRenderPass describes a single color attachment that is cleared and
// stored. The attachment stays in color-attachment-optimal layout; command
// buffers move it in and out with explicit barriers.
func (r *Renderer) createRenderPass() error {
	renderPass, _, err := r.device.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         r.swapchainFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutColorAttachmentOptimal,
				FinalLayout:    core1_0.ImageLayoutColorAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	r.swapchainResources.PushFunc("render pass", func() { renderPass.Destroy(nil) })

	r.renderPass = renderPass
	return nil
}

func (r *Renderer) createDescriptorSetLayout() error {
	var err error
	r.descriptorSetLayout, _, err = r.device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Flags: core1_2.DescriptorSetLayoutCreateUpdateAfterBindPool,
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				StageFlags:      core1_0.StageAll,
			},
		},
		NextOptions: common.NextOptions{
			Next: core1_2.DescriptorSetLayoutBindingFlagsCreateInfo{
				BindingFlags: []core1_2.DescriptorBindingFlags{
					core1_2.DescriptorBindingPartiallyBound | core1_2.DescriptorBindingUpdateAfterBind,
				},
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create descriptor set layout")
	}
	layout := r.descriptorSetLayout
	r.resources.PushFunc("descriptor set layout", func() { layout.Destroy(nil) })

	return nil
}

// createPipelineLayout has the one descriptor set layout and no push
// constant ranges.
func (r *Renderer) createPipelineLayout() error {
	var err error
	r.pipelineLayout, _, err = r.device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{
			r.descriptorSetLayout,
		},
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}
	layout := r.pipelineLayout
	r.resources.PushFunc("pipeline layout", func() { layout.Destroy(nil) })

	return nil
}

func vertexBindings() []core1_0.VertexInputBindingDescription {
	return []core1_0.VertexInputBindingDescription{
		{Binding: 0, Stride: staging.PositionStride, InputRate: core1_0.RateVertex},
		{Binding: 1, Stride: staging.ColorStride, InputRate: core1_0.RateVertex},
	}
}

func vertexAttributes() []core1_0.VertexInputAttributeDescription {
	return []core1_0.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: core1_0.FormatR32G32SignedFloat, Offset: 0},
		{Location: 1, Binding: 1, Format: core1_0.FormatR32G32B32SignedFloat, Offset: 0},
	}
}

func (r *Renderer) createShaderModule(name string, code []uint32) (core1_0.ShaderModule, error) {
	module, _, err := r.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create %s shader module", name)
	}
	return module, nil
}

// createGraphicsPipeline bakes the viewport and scissor to the current
// extent, so the pipeline is rebuilt together with the swapchain.
func (r *Renderer) createGraphicsPipeline() error {
	vertShader, err := r.createShaderModule("vertex", shaders.Vertex())
	if err != nil {
		return err
	}
	defer vertShader.Destroy(nil)

	fragShader, err := r.createShaderModule("fragment", shaders.Fragment())
	if err != nil {
		return err
	}
	defer fragShader.Destroy(nil)

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   vertexBindings(),
		VertexAttributeDescriptions: vertexAttributes(),
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(r.swapchainExtent.Width),
				Height:   float32(r.swapchainExtent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: r.swapchainExtent,
			},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	pipelines, _, err := r.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Name:   "main",
					Stage:  core1_0.StageVertex,
					Module: vertShader,
				},
				{
					Name:   "main",
					Stage:  core1_0.StageFragment,
					Module: fragShader,
				},
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			ColorBlendState:    colorBlend,
			Layout:             r.pipelineLayout,
			RenderPass:         r.renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	})
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}
	pipeline := pipelines[0]
	r.swapchainResources.PushFunc("graphics pipeline", func() { pipeline.Destroy(nil) })

	r.pipeline = pipeline
	return nil
}

func (r *Renderer) createFramebuffers() error {
	r.framebuffers = nil

	for i, imageView := range r.imageViews {
		framebuffer, _, err := r.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: r.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
			},
			Width:  r.swapchainExtent.Width,
			Height: r.swapchainExtent.Height,
		})
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		r.swapchainResources.PushFunc("framebuffer", func() { framebuffer.Destroy(nil) })

		r.framebuffers = append(r.framebuffers, framebuffer)
	}

	return nil
}
