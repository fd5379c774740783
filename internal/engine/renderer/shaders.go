package renderer

const meshVertex = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 uViewProj;

out vec3 vNormal;
out vec2 vUV;

void main() {
	vNormal = aNormal;
	vUV = aUV;
	gl_Position = uViewProj * vec4(aPos, 1.0);
}
`

const meshFragment = `
#version 410 core

in vec3 vNormal;
in vec2 vUV;

uniform vec4 uColor;
uniform bool uTextured;
uniform sampler2D uTexture;
uniform vec3 uLightDir;

out vec4 FragColor;

void main() {
	vec4 base = uColor;
	if (uTextured) {
		base *= texture(uTexture, vUV);
	}
	float diffuse = max(dot(normalize(vNormal), -uLightDir), 0.0);
	FragColor = vec4(base.rgb * (0.45 + 0.55 * diffuse), base.a);
}
`

const lineVertex = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uViewProj;

void main() {
	gl_Position = uViewProj * vec4(aPos, 1.0);
}
`

const lineFragment = `
#version 410 core

uniform vec4 uColor;

out vec4 FragColor;

void main() {
	FragColor = uColor;
}
`
